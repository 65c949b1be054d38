package mockdata

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/normalize"
	"github.com/yourorg/listings-api/internal/upstream"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newSource() *Source {
	return New(Options{Rand: rand.New(rand.NewPCG(1, 2)), Now: func() time.Time { return fixedNow }})
}

func TestGeneratedSetShape(t *testing.T) {
	s := newSource()
	if s.Len() != DefaultCount {
		t.Fatalf("len = %d, want %d", s.Len(), DefaultCount)
	}
	n := normalize.New(nil)
	n.Now = func() time.Time { return fixedNow }
	seen := map[string]bool{}
	for _, l := range n.NormalizeAll(s.active, Name) {
		if seen[l.MLSNumber] {
			t.Fatalf("duplicate mls number %s", l.MLSNumber)
		}
		seen[l.MLSNumber] = true
		if l.Price < 200000 || l.Price >= 1000000 {
			t.Errorf("%s price %d out of range", l.ID, l.Price)
		}
		if l.Bedrooms < 1 || l.Bedrooms > 5 {
			t.Errorf("%s bedrooms %d", l.ID, l.Bedrooms)
		}
		if !listing.IsValidCity(l.City, listing.MassachusettsCities) {
			t.Errorf("%s city %q not in allow-list", l.ID, l.City)
		}
		if l.State != "MA" || len(l.ZipCode) != 5 {
			t.Errorf("%s state/zip = %q %q", l.ID, l.State, l.ZipCode)
		}
		if l.Lat < 42.4 || l.Lat > 42.9 || l.Lng < -71.6 || l.Lng > -71.0 {
			t.Errorf("%s coords %f,%f too far from centroid", l.ID, l.Lat, l.Lng)
		}
		if l.DaysOnMarket < 0 || l.DaysOnMarket > 90 {
			t.Errorf("%s days on market %d", l.ID, l.DaysOnMarket)
		}
	}
}

func TestListingsFilters(t *testing.T) {
	s := newSource()
	ctx := context.Background()
	all, _ := s.Listings(ctx, listing.Filters{})
	if len(all) != s.Len() {
		t.Fatalf("unfiltered = %d", len(all))
	}
	rs, err := s.Listings(ctx, listing.Filters{City: "dracut", MinPrice: 400000, PropertyType: "houses"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) < 2 {
		t.Fatalf("expected the Dracut seed houses, got %d", len(rs))
	}
	for _, r := range rs {
		if str(r, "cityName") != "Dracut" || num(r, "listPrice") < 400000 || str(r, "propType") != "Single Family Residential" {
			t.Fatalf("record does not match: %v", r)
		}
	}
}

func TestListingByID(t *testing.T) {
	s := newSource()
	ctx := context.Background()
	r, err := s.Listing(ctx, "MA001234")
	if err != nil || str(r, "listingAgentId") != "CN222505" {
		t.Fatalf("record = %v err = %v", r, err)
	}
	if _, err := s.Listing(ctx, "nope"); !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestFeaturedIsHead(t *testing.T) {
	rs, _ := newSource().Featured(context.Background(), 6)
	if len(rs) != 6 || str(rs[0], "mlsNumber") != "MA001234" {
		t.Fatalf("featured = %d records", len(rs))
	}
}

func TestSearchZipPrefix(t *testing.T) {
	rs, _ := newSource().Search(context.Background(), listing.Criteria{ZipCode: "01826"})
	if len(rs) < 3 {
		t.Fatalf("zip search = %d", len(rs))
	}
	for _, r := range rs {
		if !strings.HasPrefix(str(r, "zipcode"), "01826") {
			t.Fatalf("zip = %s", str(r, "zipcode"))
		}
	}
}

func TestNearbySortedWithinRadius(t *testing.T) {
	s := newSource()
	rs, _ := s.Nearby(context.Background(), 42.6667, -71.3162, 5)
	if len(rs) == 0 || str(rs[0], "mlsNumber") != "MA001234" {
		t.Fatalf("nearest should be the seed at the query point, got %d records", len(rs))
	}
	prev := -1.0
	for _, r := range rs {
		d := listing.PlanarDistanceMiles(42.6667, -71.3162, num(r, "latitude"), num(r, "longitude"))
		if d > 5 || d < prev {
			t.Fatalf("distance %f after %f", d, prev)
		}
		prev = d
	}
}

func TestSoldRelabeling(t *testing.T) {
	s := newSource()
	rs, err := s.Sold(context.Background(), listing.SoldFilters{})
	if err != nil || len(rs) != soldCount {
		t.Fatalf("sold = %d err = %v", len(rs), err)
	}
	for _, r := range rs {
		list, sold := num(r, "listPrice"), num(r, "soldPrice")
		if sold < list*0.95-1 || sold > list*1.05+1 {
			t.Fatalf("sold price %f outside 5%% of %f", sold, list)
		}
		if str(r, "propStatus") != "Sold" || str(r, "soldDate") == "" {
			t.Fatalf("record not relabeled: %v", r)
		}
	}
	if str(s.active[0], "propStatus") == "Sold" {
		t.Fatal("active set must not be modified")
	}
	limited, _ := s.Sold(context.Background(), listing.SoldFilters{Limit: 5, DaysBack: 365})
	if len(limited) != 5 {
		t.Fatalf("limited = %d", len(limited))
	}
}

func TestReferenceData(t *testing.T) {
	s := newSource()
	ctx := context.Background()
	cities, _ := s.Cities(ctx)
	if len(cities) != len(listing.MassachusettsCities) || cities[0] != "Acton" {
		t.Fatalf("cities = %v", cities[:3])
	}
	types, _ := s.PropertyTypes(ctx)
	if types["cnd"] != "Condominium" {
		t.Fatalf("types = %v", types)
	}
	if _, err := s.MarketStats(ctx, ""); !errors.Is(err, upstream.ErrUnsupported) {
		t.Fatalf("stats err = %v", err)
	}
}
