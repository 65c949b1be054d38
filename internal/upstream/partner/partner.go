// Package partner adapts the IDX-style partner listings API.
package partner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/listings-api/internal/cache"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

const (
	Name           = "partner"
	DefaultBaseURL = "https://api.idxbroker.com"
	DefaultTimeout = 10 * time.Second
	// maxResults bounds one search; pagination happens downstream.
	maxResults = 500
)

type Config struct {
	BaseURL    string
	APIKey     string
	PartnerKey string
	Timeout    time.Duration
	RPS        float64
}

type Adapter struct {
	client *upstream.Client
	caches *cache.Set
}

func New(cfg Config, caches *cache.Set, log *slog.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Adapter{
		client: upstream.NewClient(upstream.ClientConfig{
			Name:    Name,
			BaseURL: cfg.BaseURL,
			Headers: map[string]string{
				"accesskey":  cfg.APIKey,
				"outputtype": "json",
			},
			SecretParams: map[string]string{"key": cfg.PartnerKey},
			Timeout:      cfg.Timeout,
			RPS:          cfg.RPS,
			Logger:       log,
		}),
		caches: caches,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) listingsCache() cache.Cache[[]byte] {
	if a.caches == nil {
		return nil
	}
	return a.caches.Listings
}

func (a *Adapter) referenceCache() cache.Cache[[]byte] {
	if a.caches == nil {
		return nil
	}
	return a.caches.Reference
}

func (a *Adapter) statsCache() cache.Cache[[]byte] {
	if a.caches == nil {
		return nil
	}
	return a.caches.Stats
}

func (a *Adapter) records(ctx context.Context, path string, params map[string]string) ([]upstream.Record, error) {
	b, err := a.client.Get(ctx, a.listingsCache(), path, params)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeRecords(b)
}

// filterParams translates the shared filter fields into partner names.
func filterParams(f listing.Filters) map[string]string {
	p := map[string]string{
		"lp":   itoa(f.MinPrice),
		"hp":   itoa(f.MaxPrice),
		"bd":   itoa(f.Bedrooms),
		"ba":   ftoa(f.Bathrooms),
		"sqft": itoa(f.SqftMin),
		"st":   "MA",
		"pg":   "1",
		"lm":   strconv.Itoa(maxResults),
	}
	if f.City != "" {
		p["ccz"] = "city"
		p["city"] = f.City
	}
	if f.SqftMax > 0 {
		p["sqftmax"] = itoa(f.SqftMax)
	}
	if f.PropertyType != "" {
		p["pt"] = listing.ParsePropertyType(f.PropertyType).Code()
	}
	if f.Status != "" {
		p["status"] = string(listing.ParseStatus(f.Status))
	}
	return p
}

func (a *Adapter) Listings(ctx context.Context, f listing.Filters) ([]upstream.Record, error) {
	return a.records(ctx, "/clients/search", filterParams(f))
}

func (a *Adapter) Listing(ctx context.Context, id string) (upstream.Record, error) {
	if id == "" {
		return nil, upstream.ErrNotFound
	}
	b, err := a.client.Get(ctx, a.listingsCache(), "/clients/listing/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeRecord(b)
}

func (a *Adapter) Featured(ctx context.Context, limit int) ([]upstream.Record, error) {
	rs, err := a.records(ctx, "/clients/featured", nil)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs, nil
}

func (a *Adapter) Search(ctx context.Context, c listing.Criteria) ([]upstream.Record, error) {
	p := filterParams(c.Filters)
	p["q"] = c.Keywords
	p["zipcode"] = c.ZipCode
	p["yb"] = itoa(c.YearBuiltMin)
	p["ybmax"] = itoa(c.YearBuiltMax)
	p["acres"] = ftoa(c.LotSizeMin)
	p["acresmax"] = ftoa(c.LotSizeMax)
	p["pool"] = yes(c.HasPool)
	p["garage"] = yes(c.HasGarage)
	p["waterfront"] = yes(c.Waterfront)
	return a.records(ctx, "/clients/search", p)
}

func (a *Adapter) Nearby(ctx context.Context, lat, lng, radius float64) ([]upstream.Record, error) {
	return a.records(ctx, "/clients/nearby", map[string]string{
		"lat":    strconv.FormatFloat(lat, 'f', 6, 64),
		"lng":    strconv.FormatFloat(lng, 'f', 6, 64),
		"radius": strconv.FormatFloat(radius, 'f', -1, 64),
		"st":     "MA",
	})
}

func (a *Adapter) Sold(ctx context.Context, f listing.SoldFilters) ([]upstream.Record, error) {
	p := map[string]string{
		"lp":       itoa(f.MinPrice),
		"hp":       itoa(f.MaxPrice),
		"st":       "MA",
		"status":   "sold",
		"daysback": itoa(f.DaysBack),
	}
	if f.City != "" {
		p["ccz"] = "city"
		p["city"] = f.City
	}
	if f.PropertyType != "" {
		p["pt"] = listing.ParsePropertyType(f.PropertyType).Code()
	}
	return a.records(ctx, "/clients/sold", p)
}

func (a *Adapter) Cities(ctx context.Context) ([]string, error) {
	b, err := a.client.Get(ctx, a.referenceCache(), "/clients/cities", map[string]string{"st": "MA"})
	if err != nil {
		return nil, err
	}
	return upstream.DecodeStrings(b, "cityName", "name", "City")
}

func (a *Adapter) PropertyTypes(ctx context.Context) (map[string]string, error) {
	b, err := a.client.Get(ctx, a.referenceCache(), "/clients/propertytypes", nil)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeLabels(b)
}

func (a *Adapter) MarketStats(ctx context.Context, city string) (*listing.MarketStats, error) {
	b, err := a.client.Get(ctx, a.statsCache(), "/clients/marketstatistics", map[string]string{"st": "MA", "city": city})
	if err != nil {
		return nil, err
	}
	rec, err := upstream.DecodeRecord(b)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, fmt.Errorf("%w: empty market statistics", upstream.ErrUnsupported)
		}
		return nil, err
	}
	return statsFromRecord(rec, city), nil
}

// Photos lists the gallery of one listing.
func (a *Adapter) Photos(ctx context.Context, id string) ([]string, error) {
	b, err := a.client.Get(ctx, a.listingsCache(), "/clients/listing/"+url.PathEscape(id)+"/images", nil)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeStrings(b, "url", "MediaURL", "href")
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.client.Get(ctx, nil, "/clients/cities", map[string]string{"st": "MA"})
	return err
}

func statsFromRecord(rec upstream.Record, city string) *listing.MarketStats {
	num := func(keys ...string) int {
		for _, k := range keys {
			if f, ok := upstream.Number(rec[k]); ok {
				return int(f + 0.5)
			}
		}
		return 0
	}
	return &listing.MarketStats{
		TotalListings:       num("TotalListings", "totalListings", "count"),
		AveragePrice:        num("AveragePrice", "averagePrice", "avgPrice"),
		MedianPrice:         num("MedianPrice", "medianPrice"),
		PriceRange:          listing.PriceRange{Min: num("MinPrice", "minPrice", "lowPrice"), Max: num("MaxPrice", "maxPrice", "highPrice")},
		AverageDaysOnMarket: num("AverageDaysOnMarket", "averageDaysOnMarket", "avgDOM"),
		City:                city,
	}
}

func itoa(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yes(b bool) string {
	if b {
		return "Y"
	}
	return ""
}
