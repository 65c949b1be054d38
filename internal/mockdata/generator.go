// Package mockdata generates the synthetic Massachusetts listing set used when
// no upstream is configured and as the last fallback when one fails.
package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

const (
	DefaultCount = 200
	// soldCount records at the head of the set are relabeled as sold.
	soldCount  = 50
	jitter     = 0.2
	dateLayout = "2006-01-02"
)

var (
	propTypes = []string{"Single Family Residential", "Condominium", "Townhouse", "Multi-Family"}
	streets   = []string{"Main", "Oak", "Elm", "Pine", "Maple", "Cedar", "Chestnut", "Washington"}
	suffixes  = []string{"Street", "Avenue", "Road", "Lane", "Drive"}
	counties  = []string{"Middlesex", "Essex", "Worcester", "Norfolk", "Plymouth"}
	offices   = []string{"Century 21", "RE/MAX", "Coldwell Banker", "Keller Williams", "Berkshire Hathaway"}
	colors    = []string{"4a90e2", "50c878", "ff6b6b", "ffa500", "9b59b6"}
)

type agent struct{ id, name string }

var agents = []agent{
	{"CN222505", "Sarah Johnson"},
	{"CN100201", "John Smith"},
	{"CN100202", "Mary Wilson"},
	{"CN100203", "David Brown"},
	{"CN100204", "Jennifer Davis"},
	{"CN100205", "Robert Miller"},
}

type Options struct {
	// Count is the total number of records, seeds included.
	Count    int
	Lat, Lng float64
	Cities   []string
	Rand     *rand.Rand
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Count <= 0 {
		o.Count = DefaultCount
	}
	if o.Lat == 0 && o.Lng == 0 {
		o.Lat, o.Lng = 42.6667, -71.3020
	}
	if len(o.Cities) == 0 {
		o.Cities = listing.MassachusettsCities
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func generate(o Options) []upstream.Record {
	now := o.Now()
	out := seeds(now)
	if len(out) > o.Count {
		out = out[:o.Count]
	}
	r := o.Rand
	for i := len(out); i < o.Count; i++ {
		city := o.Cities[r.IntN(len(o.Cities))]
		pt := propTypes[r.IntN(len(propTypes))]
		beds := r.IntN(5) + 1
		baths := r.IntN(3) + 1
		a := agents[r.IntN(len(agents))]
		out = append(out, upstream.Record{
			"mlsNumber":      fmt.Sprintf("MA%06d", 1234+i),
			"listPrice":      r.IntN(800000) + 200000,
			"address":        fmt.Sprintf("%d %s %s", r.IntN(999)+1, pick(r, streets), pick(r, suffixes)),
			"cityName":       city,
			"state":          "MA",
			"zipcode":        fmt.Sprintf("0%04d", 1000+r.IntN(1800)),
			"countyName":     pick(r, counties),
			"propType":       pt,
			"bedrooms":       beds,
			"totalBaths":     baths,
			"halfBaths":      r.IntN(2),
			"sqFt":           r.IntN(2000) + 800,
			"acres":          math.Round(r.Float64()*200) / 100,
			"yearBuilt":      r.IntN(50) + 1970,
			"stories":        r.IntN(3) + 1,
			"propStatus":     status(r),
			"listingDate":    now.AddDate(0, 0, -r.IntN(90)).Format(dateLayout),
			"remarksConcat":  fmt.Sprintf("Beautiful %s with %d bedrooms and %d bathrooms. Recently updated with modern amenities.", listing.ParsePropertyType(pt).Label(), beds, baths),
			"garage":         r.IntN(3),
			"pool":           r.Float64() > 0.8,
			"waterfront":     r.Float64() > 0.9,
			"fireplaces":     r.IntN(3),
			"latitude":       o.Lat + (r.Float64()*2-1)*jitter,
			"longitude":      o.Lng + (r.Float64()*2-1)*jitter,
			"listingAgent":   a.name,
			"listingAgentId": a.id,
			"listingOffice":  pick(r, offices) + " " + city,
			"featuredImage":  fmt.Sprintf("https://via.placeholder.com/400x300/%s/ffffff?text=%s", pick(r, colors), listing.ParsePropertyType(pt)),
		})
	}
	return out
}

// relabelSold derives the sold set from the head of the active set, with a
// sold price within 5% of list and a sold date in the last 180 days.
func relabelSold(active []upstream.Record, r *rand.Rand, now time.Time) []upstream.Record {
	n := min(soldCount, len(active))
	out := make([]upstream.Record, 0, n)
	for _, rec := range active[:n] {
		sold := make(upstream.Record, len(rec)+3)
		for k, v := range rec {
			sold[k] = v
		}
		price, _ := rec["listPrice"].(int)
		sold["propStatus"] = "Sold"
		sold["soldPrice"] = int(math.Round(float64(price) * (0.95 + r.Float64()*0.1)))
		sold["soldDate"] = now.AddDate(0, 0, -r.IntN(180)).Format(dateLayout)
		out = append(out, sold)
	}
	return out
}

func seeds(now time.Time) []upstream.Record {
	listed := func(days int) string { return now.AddDate(0, 0, -days).Format(dateLayout) }
	return []upstream.Record{
		{
			"mlsNumber": "MA001234", "listPrice": 485000, "address": "123 Main Street",
			"cityName": "Dracut", "state": "MA", "zipcode": "01826", "countyName": "Middlesex",
			"propType": "Single Family Residential", "bedrooms": 3, "totalBaths": 2, "halfBaths": 1,
			"sqFt": 1850, "acres": 0.25, "yearBuilt": 2015, "stories": 2, "propStatus": "Active",
			"listingDate": listed(45),
			"remarksConcat": "Beautiful colonial home with modern updates, granite countertops, hardwood floors throughout.",
			"garage": 2, "pool": false, "waterfront": false, "fireplaces": 1,
			"latitude": 42.6667, "longitude": -71.3162,
			"listingAgent": "Sarah Johnson", "listingAgentId": "CN222505", "listingOffice": "Century 21 Dracut",
			"featuredImage": "https://via.placeholder.com/400x300/4a90e2/ffffff?text=Beautiful+Colonial+Home",
		},
		{
			"mlsNumber": "MA001235", "listPrice": 325000, "address": "456 Oak Avenue",
			"cityName": "Dracut", "state": "MA", "zipcode": "01826", "countyName": "Middlesex",
			"propType": "Condominium", "bedrooms": 2, "totalBaths": 2, "halfBaths": 0,
			"sqFt": 1200, "acres": 0, "yearBuilt": 2010, "stories": 1, "propStatus": "Active",
			"listingDate": listed(50),
			"remarksConcat": "Spacious 2-bedroom condo with updated kitchen, in-unit laundry, and community amenities.",
			"garage": 1, "pool": true, "waterfront": false, "fireplaces": 0,
			"latitude": 42.6701, "longitude": -71.3201,
			"listingAgent": "Mike Thompson", "listingAgentId": "CN100301", "listingOffice": "RE/MAX Dracut",
			"featuredImage": "https://via.placeholder.com/400x300/50c878/ffffff?text=Modern+Condo",
		},
		{
			"mlsNumber": "MA001236", "listPrice": 675000, "address": "789 Elm Street",
			"cityName": "Dracut", "state": "MA", "zipcode": "01826", "countyName": "Middlesex",
			"propType": "Single Family Residential", "bedrooms": 4, "totalBaths": 3, "halfBaths": 1,
			"sqFt": 2400, "acres": 0.5, "yearBuilt": 2018, "stories": 2, "propStatus": "Active",
			"listingDate": listed(55),
			"remarksConcat": "Stunning 4-bedroom home with open floor plan, chef's kitchen, master suite with walk-in closet.",
			"garage": 2, "pool": false, "waterfront": false, "fireplaces": 2,
			"latitude": 42.6634, "longitude": -71.3089,
			"listingAgent": "Lisa Chen", "listingAgentId": "CN100302", "listingOffice": "Coldwell Banker Dracut",
			"featuredImage": "https://via.placeholder.com/400x300/ff6b6b/ffffff?text=Luxury+Home",
		},
	}
}

func pick(r *rand.Rand, xs []string) string { return xs[r.IntN(len(xs))] }

func status(r *rand.Rand) string {
	if r.Float64() > 0.1 {
		return "Active"
	}
	return "Pending"
}
