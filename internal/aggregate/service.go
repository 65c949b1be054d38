// Package aggregate is the single entry point the API layer uses for listing
// data. It picks the backing source, normalizes what comes back and falls
// back to the mock set whenever the configured upstream fails.
package aggregate

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/yourorg/listings-api/internal/cache"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/normalize"
	"github.com/yourorg/listings-api/internal/upstream"
)

const (
	DefaultPinnedAgent   = "CN222505"
	DefaultFeaturedCount = 6
	DefaultNearbyLimit   = 10
	DefaultRadius        = 5.0
	// featuredOverscan leaves room for duplicates before truncating to K.
	featuredOverscan = 3
)

type Config struct {
	PinnedAgent   string
	FeaturedCount int
	NearbyLimit   int
	// Cities is the allow-list filters are validated against. Empty
	// disables the city check.
	Cities []string
}

type Service struct {
	cfg     Config
	primary upstream.Source
	mock    upstream.Source
	norm    *normalize.Normalizer
	caches  *cache.Set
	log     *slog.Logger
}

// New wires the service. primary may be nil, in which case every call is
// answered by mock without any network attempt.
func New(cfg Config, primary, mock upstream.Source, norm *normalize.Normalizer, caches *cache.Set, log *slog.Logger) *Service {
	if cfg.FeaturedCount <= 0 {
		cfg.FeaturedCount = DefaultFeaturedCount
	}
	if cfg.NearbyLimit <= 0 {
		cfg.NearbyLimit = DefaultNearbyLimit
	}
	if log == nil {
		log = slog.Default()
	}
	if norm == nil {
		norm = normalize.New(log)
	}
	return &Service{cfg: cfg, primary: primary, mock: mock, norm: norm, caches: caches, log: log}
}

// SourceName names the configured backing source.
func (s *Service) SourceName() string {
	if s.primary == nil {
		return s.mock.Name()
	}
	return s.primary.Name()
}

// call runs fn against the primary source and falls back to the mock on any
// failure other than a confirmed absence or a missing endpoint. It returns
// the name of the source that answered.
func call[T any](ctx context.Context, s *Service, op string, fn func(upstream.Source) (T, error)) (T, string, error) {
	if s.primary == nil {
		v, err := fn(s.mock)
		return v, s.mock.Name(), err
	}
	v, err := fn(s.primary)
	switch {
	case err == nil:
		return v, s.primary.Name(), nil
	case errors.Is(err, upstream.ErrNotFound), errors.Is(err, upstream.ErrUnsupported):
		return v, s.primary.Name(), err
	}
	s.log.WarnContext(ctx, "upstream failed, serving mock data", "op", op, "source", s.primary.Name(), "err", err)
	v, err = fn(s.mock)
	return v, s.mock.Name(), err
}

// records is call for list operations. They never fail: whatever error is
// left after the fallback is logged and treated as an empty result.
func (s *Service) records(ctx context.Context, op string, fn func(upstream.Source) ([]upstream.Record, error)) ([]listing.Listing, error) {
	raw, src, err := call(ctx, s, op, fn)
	if err != nil {
		switch {
		case errors.Is(err, upstream.ErrUnsupported):
			return nil, err
		case errors.Is(err, upstream.ErrNotFound):
			return []listing.Listing{}, nil
		}
		s.log.ErrorContext(ctx, "no listing data", "op", op, "source", src, "err", err)
		return []listing.Listing{}, nil
	}
	return s.norm.NormalizeAll(raw, src), nil
}

func (s *Service) allListings(ctx context.Context, op string, f listing.Filters) []listing.Listing {
	ls, err := s.records(ctx, op, func(src upstream.Source) ([]upstream.Record, error) {
		return src.Listings(ctx, f)
	})
	if err != nil {
		// Listings is mandatory for every source.
		s.log.ErrorContext(ctx, "listings unsupported", "op", op, "err", err)
		return []listing.Listing{}
	}
	return listing.Filter(ls, f.Match)
}

// Listings returns one page of listings matching f.
func (s *Service) Listings(ctx context.Context, f listing.Filters) (*listing.Page, error) {
	if err := f.Validate(s.cfg.Cities); err != nil {
		return nil, err
	}
	ls := s.allListings(ctx, "listings", f)
	listing.Sort(ls, f.SortBy, s.cfg.PinnedAgent)
	page := listing.Paginate(ls, f.Page, f.Limit)
	return &page, nil
}

// Listing looks up one listing. A nil result means the source confirmed the
// id does not exist; the mock is not consulted in that case.
func (s *Service) Listing(ctx context.Context, id string) (*listing.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &listing.ValidationError{Violations: []string{"listing id is required"}}
	}
	raw, src, err := call(ctx, s, "listing", func(src upstream.Source) (upstream.Record, error) {
		return src.Listing(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, upstream.ErrNotFound) {
			s.log.ErrorContext(ctx, "listing lookup failed", "id", id, "source", src, "err", err)
		}
		return nil, nil
	}
	l := s.norm.Normalize(raw, src)
	return &l, nil
}

// Photos lists the gallery of one listing at detail size. nil means the
// listing does not exist.
func (s *Service) Photos(ctx context.Context, id string) ([]string, error) {
	src := s.primary
	if src == nil {
		src = s.mock
	}
	if ps, ok := src.(upstream.PhotoSource); ok {
		urls, err := ps.Photos(ctx, id)
		if err == nil && len(urls) > 0 {
			return normalize.LargeURLs(urls), nil
		}
		if err != nil && !errors.Is(err, upstream.ErrNotFound) {
			s.log.WarnContext(ctx, "photo lookup failed", "id", id, "source", src.Name(), "err", err)
		}
	}
	l, err := s.Listing(ctx, id)
	if err != nil || l == nil {
		return nil, err
	}
	return normalize.LargeURLs(append([]string{}, l.Images...)), nil
}

// Featured is the first K distinct listings of the unfiltered set.
func (s *Service) Featured(ctx context.Context) ([]listing.Listing, error) {
	k := s.cfg.FeaturedCount
	ls, err := s.records(ctx, "featured", func(src upstream.Source) ([]upstream.Record, error) {
		return src.Featured(ctx, k*featuredOverscan)
	})
	if err != nil {
		ls = s.allListings(ctx, "featured", listing.Filters{})
	}
	seen := make(map[string]bool, len(ls))
	out := make([]listing.Listing, 0, k)
	for _, l := range ls {
		key := cmp.Or(l.MLSNumber, l.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Search runs an advanced query and returns every match, sorted.
func (s *Service) Search(ctx context.Context, c listing.Criteria) ([]listing.Listing, error) {
	if err := c.Validate(s.cfg.Cities); err != nil {
		return nil, err
	}
	ls, err := s.records(ctx, "search", func(src upstream.Source) ([]upstream.Record, error) {
		return src.Search(ctx, c)
	})
	if err != nil {
		ls = s.allListings(ctx, "search", c.Filters)
	}
	ls = listing.Filter(ls, c.Match)
	listing.Sort(ls, c.SortBy, s.cfg.PinnedAgent)
	return ls, nil
}

// Nearby returns listings within radius miles of the point, nearest first.
// A radius of zero means the default.
func (s *Service) Nearby(ctx context.Context, lat, lng, radius float64) ([]listing.Listing, error) {
	if radius == 0 {
		radius = DefaultRadius
	}
	if err := listing.ValidateNearby(lat, lng, radius); err != nil {
		return nil, err
	}
	ls, err := s.records(ctx, "nearby", func(src upstream.Source) ([]upstream.Record, error) {
		return src.Nearby(ctx, lat, lng, radius)
	})
	if err != nil {
		ls = s.allListings(ctx, "nearby", listing.Filters{})
	}
	out := make([]listing.Listing, 0, len(ls))
	for _, l := range ls {
		d := listing.PlanarDistanceMiles(lat, lng, l.Lat, l.Lng)
		if d > radius {
			continue
		}
		d = math.Round(d*10) / 10
		l.Distance = &d
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(a, b listing.Listing) int { return cmp.Compare(*a.Distance, *b.Distance) })
	if len(out) > s.cfg.NearbyLimit {
		out = out[:s.cfg.NearbyLimit]
	}
	return out, nil
}

// Sold returns recently sold listings, most recent sale first. Sources
// without sold data yield an empty list.
func (s *Service) Sold(ctx context.Context, f listing.SoldFilters) ([]listing.Listing, error) {
	if err := f.Validate(s.cfg.Cities); err != nil {
		return nil, err
	}
	if f.DaysBack <= 0 {
		f.DaysBack = listing.DefaultSoldDays
	}
	if f.Limit <= 0 {
		f.Limit = listing.DefaultSoldLimit
	}
	ls, err := s.records(ctx, "sold", func(src upstream.Source) ([]upstream.Record, error) {
		return src.Sold(ctx, f)
	})
	if err != nil {
		return []listing.Listing{}, nil
	}
	ls = listing.Filter(ls, f.Match)
	slices.SortStableFunc(ls, func(a, b listing.Listing) int { return cmp.Compare(b.SoldDate, a.SoldDate) })
	if len(ls) > f.Limit {
		ls = ls[:f.Limit]
	}
	return ls, nil
}

// Cities lists the cities the source knows, falling back to the allow-list.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	cities, src, err := call(ctx, s, "cities", func(src upstream.Source) ([]string, error) {
		return src.Cities(ctx)
	})
	if err != nil || len(cities) == 0 {
		if err != nil && !errors.Is(err, upstream.ErrUnsupported) {
			s.log.WarnContext(ctx, "cities unavailable, using allow-list", "source", src, "err", err)
		}
		cities = slices.Clone(s.cfg.Cities)
		if len(cities) == 0 {
			cities = slices.Clone(listing.MassachusettsCities)
		}
		slices.Sort(cities)
	}
	return cities, nil
}

// PropertyTypes maps property-type codes to labels.
func (s *Service) PropertyTypes(ctx context.Context) (map[string]string, error) {
	types, src, err := call(ctx, s, "property-types", func(src upstream.Source) (map[string]string, error) {
		return src.PropertyTypes(ctx)
	})
	if err != nil || len(types) == 0 {
		if err != nil && !errors.Is(err, upstream.ErrUnsupported) {
			s.log.WarnContext(ctx, "property types unavailable, using defaults", "source", src, "err", err)
		}
		types = maps.Clone(listing.PropertyTypeLabels)
	}
	return types, nil
}

// MarketStats summarizes the market for city, or the whole state when city
// is empty. Sources without a statistics endpoint get figures computed from
// their listings.
func (s *Service) MarketStats(ctx context.Context, city string) (*listing.MarketStats, error) {
	if err := listing.ValidateCity(city, s.cfg.Cities); err != nil {
		return nil, err
	}
	st, _, err := call(ctx, s, "market-stats", func(src upstream.Source) (*listing.MarketStats, error) {
		return src.MarketStats(ctx, city)
	})
	if err == nil && st != nil {
		if st.City == "" {
			st.City = cityLabel(city)
		}
		return st, nil
	}
	return derived(ctx, s, "stats:"+strings.ToLower(city), func() *listing.MarketStats {
		computed := listing.ComputeStats(s.allListings(ctx, "market-stats", listing.Filters{City: city}), cityLabel(city))
		return &computed
	}), nil
}

// Trends summarizes sales over the last days days.
func (s *Service) Trends(ctx context.Context, city, propertyType string, days int) (*listing.Trends, error) {
	if days <= 0 {
		days = listing.DefaultSoldDays
	}
	f := listing.SoldFilters{City: city, PropertyType: propertyType, DaysBack: days, Limit: listing.MaxLimit * 5}
	if err := f.Validate(s.cfg.Cities); err != nil {
		return nil, err
	}
	key := "trends:" + strings.ToLower(city) + ":" + propertyType + ":" + strconv.Itoa(days)
	return derived(ctx, s, key, func() *listing.Trends {
		sold, _ := s.Sold(ctx, f)
		tr := listing.ComputeTrends(sold)
		return &tr
	}), nil
}

// PriceDistribution buckets current listings into price bands.
func (s *Service) PriceDistribution(ctx context.Context, city, propertyType string) (*listing.PriceDistribution, error) {
	f := listing.Filters{City: city, PropertyType: propertyType}
	if err := f.Validate(s.cfg.Cities); err != nil {
		return nil, err
	}
	key := "distribution:" + strings.ToLower(city) + ":" + propertyType
	return derived(ctx, s, key, func() *listing.PriceDistribution {
		d := listing.ComputePriceDistribution(s.allListings(ctx, "price-distribution", f))
		return &d
	}), nil
}

// derived memoizes a computed value in the stats cache under the name of
// the source it was computed from.
func derived[T any](ctx context.Context, s *Service, key string, compute func() *T) *T {
	key = s.SourceName() + ":derived:" + key
	if s.caches != nil {
		if b, ok := s.caches.Stats.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return &v
			}
		}
	}
	v := compute()
	if s.caches != nil {
		if b, err := json.Marshal(v); err == nil {
			s.caches.Stats.Set(ctx, key, b)
		}
	}
	return v
}

func cityLabel(city string) string {
	return cmp.Or(strings.TrimSpace(city), "Massachusetts")
}

type CacheStats struct {
	Source  string         `json:"source"`
	Entries map[string]int `json:"entries"`
	Total   int            `json:"total"`
}

func (s *Service) CacheStats(ctx context.Context) CacheStats {
	sizes := s.caches.Sizes(ctx)
	total := 0
	for _, n := range sizes {
		total += n
	}
	return CacheStats{Source: s.SourceName(), Entries: sizes, Total: total}
}

// ClearCache drops every cached upstream response and derived figure.
func (s *Service) ClearCache(ctx context.Context) {
	s.caches.Clear(ctx)
	s.log.InfoContext(ctx, "cache cleared")
}

// Ping checks the configured upstream. The mock is always reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.primary == nil {
		return s.mock.Ping(ctx)
	}
	return s.primary.Ping(ctx)
}

// RefreshKinds are the cache groups Refresh can rebuild.
var RefreshKinds = []string{"cities", "property-types", "featured"}

// Refresh drops the cache group behind kind and warms it again.
func (s *Service) Refresh(ctx context.Context, kind string) error {
	if !slices.Contains(RefreshKinds, kind) {
		return &listing.ValidationError{Violations: []string{"unknown refresh type " + strconv.Quote(kind)}}
	}
	if s.caches != nil {
		switch kind {
		case "featured":
			s.caches.Listings.Clear(ctx)
		default:
			s.caches.Reference.Clear(ctx)
		}
	}
	var err error
	switch kind {
	case "cities":
		_, err = s.Cities(ctx)
	case "property-types":
		_, err = s.PropertyTypes(ctx)
	case "featured":
		_, err = s.Featured(ctx)
	}
	return err
}
