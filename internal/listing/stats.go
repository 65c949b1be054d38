package listing

import (
	"math"
	"slices"
)

type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type MarketStats struct {
	TotalListings       int        `json:"totalListings"`
	AveragePrice        int        `json:"averagePrice"`
	MedianPrice         int        `json:"medianPrice"`
	PriceRange          PriceRange `json:"priceRange"`
	AverageDaysOnMarket int        `json:"averageDaysOnMarket"`
	City                string     `json:"city,omitempty"`
}

// ComputeStats summarizes ls. Listings without a price are counted but do not
// contribute to the price figures; the median is the upper middle element.
func ComputeStats(ls []Listing, city string) MarketStats {
	st := MarketStats{TotalListings: len(ls), City: city}
	prices := positivePrices(ls)
	if len(prices) > 0 {
		st.AveragePrice = mean(prices)
		st.MedianPrice = prices[len(prices)/2]
		st.PriceRange = PriceRange{Min: prices[0], Max: prices[len(prices)-1]}
	}
	var dom []int
	for _, l := range ls {
		if l.DaysOnMarket > 0 {
			dom = append(dom, l.DaysOnMarket)
		}
	}
	st.AverageDaysOnMarket = mean(dom)
	return st
}

type Trends struct {
	AveragePrice        int        `json:"averagePrice"`
	MedianPrice         int        `json:"medianPrice"`
	AverageDaysOnMarket int        `json:"averageDaysOnMarket"`
	TotalSales          int        `json:"totalSales"`
	PricePerSqft        int        `json:"pricePerSqft"`
	PriceRange          PriceRange `json:"priceRange"`
}

// ComputeTrends summarizes sold listings, preferring the sold price over the list price.
func ComputeTrends(sold []Listing) Trends {
	tr := Trends{TotalSales: len(sold)}
	if len(sold) == 0 {
		return tr
	}
	var prices, dom, ppsf []int
	for _, l := range sold {
		p := l.Price
		if l.SoldPrice != nil && *l.SoldPrice > 0 {
			p = *l.SoldPrice
		}
		if p > 0 {
			prices = append(prices, p)
			if l.Sqft > 0 {
				ppsf = append(ppsf, int(math.Round(float64(p)/float64(l.Sqft))))
			}
		}
		if l.DaysOnMarket > 0 {
			dom = append(dom, l.DaysOnMarket)
		}
	}
	slices.Sort(prices)
	if len(prices) > 0 {
		tr.AveragePrice = mean(prices)
		tr.MedianPrice = prices[len(prices)/2]
		tr.PriceRange = PriceRange{Min: prices[0], Max: prices[len(prices)-1]}
	}
	tr.AverageDaysOnMarket = mean(dom)
	tr.PricePerSqft = mean(ppsf)
	return tr
}

type PriceBand struct {
	Label      string `json:"label"`
	Min        int    `json:"min"`
	Max        *int   `json:"max"` // nil = unbounded
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type PriceDistribution struct {
	Ranges        []PriceBand `json:"ranges"`
	TotalListings int         `json:"totalListings"`
	AveragePrice  int         `json:"averagePrice"`
	MedianPrice   int         `json:"medianPrice"`
}

var priceBands = []struct {
	label    string
	min, max int
}{
	{"Under $300K", 0, 300_000},
	{"$300K - $500K", 300_000, 500_000},
	{"$500K - $750K", 500_000, 750_000},
	{"$750K - $1M", 750_000, 1_000_000},
	{"$1M - $1.5M", 1_000_000, 1_500_000},
	{"$1.5M - $2M", 1_500_000, 2_000_000},
	{"Over $2M", 2_000_000, 0},
}

// ComputePriceDistribution buckets priced listings into fixed bands [min, max).
func ComputePriceDistribution(ls []Listing) PriceDistribution {
	prices := positivePrices(ls)
	if len(prices) == 0 {
		return PriceDistribution{Ranges: []PriceBand{}}
	}
	out := PriceDistribution{
		Ranges:        make([]PriceBand, 0, len(priceBands)),
		TotalListings: len(prices),
		AveragePrice:  mean(prices),
		MedianPrice:   prices[len(prices)/2],
	}
	for _, b := range priceBands {
		band := PriceBand{Label: b.label, Min: b.min}
		if b.max > 0 {
			m := b.max
			band.Max = &m
		}
		for _, p := range prices {
			if p >= b.min && (b.max == 0 || p < b.max) {
				band.Count++
			}
		}
		band.Percentage = int(math.Round(float64(band.Count) * 100 / float64(len(prices))))
		out.Ranges = append(out.Ranges, band)
	}
	return out
}

// PlanarDistanceMiles approximates distance by treating a degree as 69 miles
// on both axes. Good enough at state scale.
func PlanarDistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Hypot(lat2-lat1, lng2-lng1) * 69
}

func positivePrices(ls []Listing) []int {
	var prices []int
	for _, l := range ls {
		if l.Price > 0 {
			prices = append(prices, l.Price)
		}
	}
	slices.Sort(prices)
	return prices
}

func mean(vs []int) int {
	if len(vs) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vs {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(vs))))
}
