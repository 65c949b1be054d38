// Package secondary adapts the local listings API that serves legacy-shaped
// records ({listing_key, data: {...}}).
package secondary

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/listings-api/internal/cache"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

const (
	Name           = "secondary"
	DefaultTimeout = 4 * time.Second
	listLimit      = 500
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

type Adapter struct {
	client *upstream.Client
	cache  cache.Cache[[]byte]
}

func New(cfg Config, caches *cache.Set, log *slog.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	a := &Adapter{
		client: upstream.NewClient(upstream.ClientConfig{
			Name:    Name,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			RPS:     cfg.RPS,
			Logger:  log,
		}),
	}
	if caches != nil {
		a.cache = caches.Listings
	}
	return a
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) list(ctx context.Context, params map[string]string) ([]upstream.Record, error) {
	b, err := a.client.Get(ctx, a.cache, "/listings", params)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeRecords(b)
}

func params(f listing.Filters, limit int) map[string]string {
	p := map[string]string{
		"city":      f.City,
		"limit":     strconv.Itoa(limit),
		"bedrooms":  positive(f.Bedrooms),
		"min_price": positive(f.MinPrice),
		"max_price": positive(f.MaxPrice),
	}
	if f.Bathrooms > 0 {
		p["bathrooms"] = strconv.FormatFloat(f.Bathrooms, 'f', -1, 64)
	}
	if f.PropertyType != "" {
		p["property_type"] = listing.ParsePropertyType(f.PropertyType).Code()
	}
	return p
}

func (a *Adapter) Listings(ctx context.Context, f listing.Filters) ([]upstream.Record, error) {
	return a.list(ctx, params(f, listLimit))
}

func (a *Adapter) Listing(ctx context.Context, id string) (upstream.Record, error) {
	if id == "" {
		return nil, upstream.ErrNotFound
	}
	b, err := a.client.Get(ctx, a.cache, "/listings/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return upstream.DecodeRecord(b)
}

// Featured is the head of the default listing order.
func (a *Adapter) Featured(ctx context.Context, limit int) ([]upstream.Record, error) {
	if limit <= 0 {
		limit = 6
	}
	return a.list(ctx, map[string]string{"limit": strconv.Itoa(limit)})
}

func (a *Adapter) Search(ctx context.Context, c listing.Criteria) ([]upstream.Record, error) {
	p := params(c.Filters, listLimit)
	p["zip_code"] = c.ZipCode
	return a.list(ctx, p)
}

func (a *Adapter) Nearby(context.Context, float64, float64, float64) ([]upstream.Record, error) {
	return nil, upstream.ErrUnsupported
}

func (a *Adapter) Sold(context.Context, listing.SoldFilters) ([]upstream.Record, error) {
	return nil, upstream.ErrUnsupported
}

func (a *Adapter) Cities(context.Context) ([]string, error) {
	return nil, upstream.ErrUnsupported
}

func (a *Adapter) PropertyTypes(context.Context) (map[string]string, error) {
	return nil, upstream.ErrUnsupported
}

func (a *Adapter) MarketStats(context.Context, string) (*listing.MarketStats, error) {
	return nil, upstream.ErrUnsupported
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.client.Get(ctx, nil, "/health", nil)
	return err
}

func positive(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
