// Package upstream defines the surface every listing provider implements and
// the HTTP plumbing shared by the real adapters.
package upstream

import (
	"context"
	"errors"

	"github.com/yourorg/listings-api/internal/listing"
)

var (
	// ErrNotFound means the provider answered and the listing does not exist.
	ErrNotFound = errors.New("upstream: not found")
	// ErrUnavailable covers transport failures, timeouts, non-2xx answers,
	// unreadable bodies and locally throttled calls.
	ErrUnavailable = errors.New("upstream: unavailable")
	// ErrUnsupported means the provider has no such endpoint; callers derive
	// the answer themselves.
	ErrUnsupported = errors.New("upstream: unsupported")
)

// Record is one raw listing as the provider shaped it.
type Record = map[string]any

type Source interface {
	Name() string
	// Listings returns every record matching f. Pagination and sorting are
	// left to the caller.
	Listings(ctx context.Context, f listing.Filters) ([]Record, error)
	Listing(ctx context.Context, id string) (Record, error)
	Featured(ctx context.Context, limit int) ([]Record, error)
	Search(ctx context.Context, c listing.Criteria) ([]Record, error)
	Nearby(ctx context.Context, lat, lng, radius float64) ([]Record, error)
	Sold(ctx context.Context, f listing.SoldFilters) ([]Record, error)
	Cities(ctx context.Context) ([]string, error)
	PropertyTypes(ctx context.Context) (map[string]string, error)
	MarketStats(ctx context.Context, city string) (*listing.MarketStats, error)
	Ping(ctx context.Context) error
}

// PhotoSource is implemented by providers with a dedicated photo endpoint.
type PhotoSource interface {
	Photos(ctx context.Context, id string) ([]string, error)
}
