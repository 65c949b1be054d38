package partner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/yourorg/listings-api/internal/cache"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestAdapter(t *testing.T, h http.HandlerFunc) (*Adapter, *cache.Set) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	caches := cache.NewMemorySet(cache.TTLs{})
	return New(Config{BaseURL: srv.URL, APIKey: "access", PartnerKey: "pk"}, caches, quiet), caches
}

func TestListingsTranslatesFilters(t *testing.T) {
	var got url.Values
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clients/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("accesskey") != "access" || r.Header.Get("outputtype") != "json" {
			t.Errorf("headers = %v", r.Header)
		}
		got = r.URL.Query()
		w.Write([]byte(`[{"ListingId":"1"}]`))
	})
	rs, err := a.Listings(context.Background(), listing.Filters{MinPrice: 300000, Bedrooms: 3, PropertyType: "condos"})
	if err != nil || len(rs) != 1 {
		t.Fatalf("records = %v err = %v", rs, err)
	}
	if got.Get("lp") != "300000" || got.Get("bd") != "3" || got.Get("pt") != "cnd" || got.Get("st") != "MA" || got.Get("key") != "pk" {
		t.Fatalf("query = %v", got)
	}
	if got.Has("city") || got.Has("ccz") || got.Has("hp") || got.Has("ba") {
		t.Fatalf("empty filters leaked into query: %v", got)
	}
}

func TestSearchSendsAdvancedParams(t *testing.T) {
	var got url.Values
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[]`))
	})
	_, err := a.Search(context.Background(), listing.Criteria{
		Filters:  listing.Filters{City: "Salem"},
		Keywords: "ocean view", YearBuiltMin: 1990, LotSizeMax: 1.5, HasPool: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Get("city") != "Salem" || got.Get("ccz") != "city" || got.Get("q") != "ocean view" ||
		got.Get("yb") != "1990" || got.Get("acresmax") != "1.5" || got.Get("pool") != "Y" {
		t.Fatalf("query = %v", got)
	}
	if got.Has("garage") || got.Has("waterfront") {
		t.Fatalf("false flags should be omitted: %v", got)
	}
}

func TestListingNotFoundAndCache(t *testing.T) {
	var hits int32
	a, caches := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/clients/listing/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ListingId":"73100001","ListPrice":500000}`))
	})
	ctx := context.Background()
	if _, err := a.Listing(ctx, "missing"); !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	for i := 0; i < 2; i++ {
		rec, err := a.Listing(ctx, "73100001")
		if err != nil || rec["ListingId"] != "73100001" {
			t.Fatalf("record = %v err = %v", rec, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("server hits = %d, want 2", n)
	}
	if caches.Sizes(ctx)["listings"] != 1 {
		t.Fatalf("sizes = %v", caches.Sizes(ctx))
	}
}

func TestReferenceAndStatsUseTheirCaches(t *testing.T) {
	a, caches := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clients/cities":
			w.Write([]byte(`[{"cityName":"Boston"},{"cityName":"Salem"}]`))
		case "/clients/propertytypes":
			w.Write([]byte(`{"sfr":"Single Family Residential"}`))
		case "/clients/marketstatistics":
			w.Write([]byte(`{"TotalListings":10,"AveragePrice":"500000","MedianPrice":450000}`))
		}
	})
	ctx := context.Background()
	cities, err := a.Cities(ctx)
	if err != nil || len(cities) != 2 {
		t.Fatalf("cities = %v err = %v", cities, err)
	}
	types, err := a.PropertyTypes(ctx)
	if err != nil || types["sfr"] == "" {
		t.Fatalf("types = %v err = %v", types, err)
	}
	st, err := a.MarketStats(ctx, "Boston")
	if err != nil || st.TotalListings != 10 || st.AveragePrice != 500000 || st.City != "Boston" {
		t.Fatalf("stats = %+v err = %v", st, err)
	}
	sizes := caches.Sizes(ctx)
	if sizes["reference"] != 2 || sizes["stats"] != 1 || sizes["listings"] != 0 {
		t.Fatalf("sizes = %v", sizes)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := a.Featured(context.Background(), 6); !errors.Is(err, upstream.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
