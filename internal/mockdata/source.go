package mockdata

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

const Name = "mock"

// Source serves the generated set through the upstream.Source surface.
// The set is built once; returned records are shared and must not be
// modified.
type Source struct {
	active []upstream.Record
	sold   []upstream.Record
	cities []string
	now    func() time.Time
}

var _ upstream.Source = (*Source)(nil)

func New(opts Options) *Source {
	o := opts.withDefaults()
	active := generate(o)
	cities := slices.Clone(o.Cities)
	slices.Sort(cities)
	return &Source{
		active: active,
		sold:   relabelSold(active, o.Rand, o.Now()),
		cities: cities,
		now:    o.Now,
	}
}

func (s *Source) Name() string { return Name }

// Len is the size of the active set.
func (s *Source) Len() int { return len(s.active) }

func (s *Source) Listings(_ context.Context, f listing.Filters) ([]upstream.Record, error) {
	return s.filter(s.active, func(r upstream.Record) bool { return matchFilters(r, f) }), nil
}

func (s *Source) Listing(_ context.Context, id string) (upstream.Record, error) {
	for _, r := range s.active {
		if str(r, "mlsNumber") == id {
			return r, nil
		}
	}
	return nil, upstream.ErrNotFound
}

// Featured is the head of the set.
func (s *Source) Featured(_ context.Context, limit int) ([]upstream.Record, error) {
	if limit <= 0 || limit > len(s.active) {
		limit = len(s.active)
	}
	return slices.Clone(s.active[:limit]), nil
}

func (s *Source) Search(_ context.Context, c listing.Criteria) ([]upstream.Record, error) {
	return s.filter(s.active, func(r upstream.Record) bool {
		return matchFilters(r, c.Filters) && strings.HasPrefix(str(r, "zipcode"), c.ZipCode)
	}), nil
}

// Nearby uses the planar approximation and returns records nearest first.
func (s *Source) Nearby(_ context.Context, lat, lng, radius float64) ([]upstream.Record, error) {
	type hit struct {
		rec  upstream.Record
		dist float64
	}
	var hits []hit
	for _, r := range s.active {
		d := listing.PlanarDistanceMiles(lat, lng, num(r, "latitude"), num(r, "longitude"))
		if d <= radius {
			hits = append(hits, hit{r, d})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})
	out := make([]upstream.Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return out, nil
}

func (s *Source) Sold(_ context.Context, f listing.SoldFilters) ([]upstream.Record, error) {
	var since string
	if f.DaysBack > 0 {
		since = s.now().AddDate(0, 0, -f.DaysBack).Format(dateLayout)
	}
	out := s.filter(s.sold, func(r upstream.Record) bool {
		if f.City != "" && !strings.EqualFold(str(r, "cityName"), f.City) {
			return false
		}
		price := int(num(r, "listPrice"))
		if f.MinPrice > 0 && price < f.MinPrice {
			return false
		}
		if f.MaxPrice > 0 && price > f.MaxPrice {
			return false
		}
		if f.PropertyType != "" && listing.ParsePropertyType(str(r, "propType")) != listing.ParsePropertyType(f.PropertyType) {
			return false
		}
		return since == "" || str(r, "soldDate") >= since
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Source) Cities(context.Context) ([]string, error) {
	return slices.Clone(s.cities), nil
}

func (s *Source) PropertyTypes(context.Context) (map[string]string, error) {
	return maps.Clone(listing.PropertyTypeLabels), nil
}

// MarketStats is left to the caller, which computes it from the
// normalized listings so days on market agree with the list dates.
func (s *Source) MarketStats(context.Context, string) (*listing.MarketStats, error) {
	return nil, upstream.ErrUnsupported
}

func (s *Source) Ping(context.Context) error { return nil }

func (s *Source) filter(rs []upstream.Record, keep func(upstream.Record) bool) []upstream.Record {
	out := make([]upstream.Record, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchFilters(r upstream.Record, f listing.Filters) bool {
	if f.City != "" && !strings.EqualFold(str(r, "cityName"), f.City) {
		return false
	}
	price := int(num(r, "listPrice"))
	if f.MinPrice > 0 && price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && price > f.MaxPrice {
		return false
	}
	if f.Bedrooms > 0 && int(num(r, "bedrooms")) < f.Bedrooms {
		return false
	}
	if f.Bathrooms > 0 && num(r, "totalBaths") < f.Bathrooms {
		return false
	}
	sqft := int(num(r, "sqFt"))
	if f.SqftMin > 0 && sqft < f.SqftMin {
		return false
	}
	if f.SqftMax > 0 && sqft > f.SqftMax {
		return false
	}
	if f.PropertyType != "" && listing.ParsePropertyType(str(r, "propType")) != listing.ParsePropertyType(f.PropertyType) {
		return false
	}
	if f.Status != "" && listing.ParseStatus(str(r, "propStatus")) != listing.ParseStatus(f.Status) {
		return false
	}
	return true
}

func str(r upstream.Record, k string) string {
	s, _ := r[k].(string)
	return s
}

func num(r upstream.Record, k string) float64 {
	switch v := r[k].(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
