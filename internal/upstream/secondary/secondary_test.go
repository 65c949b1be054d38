package secondary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/upstream"
)

func TestSecondary(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		switch r.URL.Path {
		case "/listings":
			w.Write([]byte(`[{"listing_key":"k1","data":{"LIST_PRICE":400000}}]`))
		case "/listings/k1":
			w.Write([]byte(`{"listing_key":"k1","data":{"LIST_PRICE":400000}}`))
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	rs, err := a.Search(ctx, listing.Criteria{Filters: listing.Filters{City: "Lowell", MinPrice: 100, PropertyType: "townhomes"}, ZipCode: "01852"})
	if err != nil || len(rs) != 1 {
		t.Fatalf("records = %v err = %v", rs, err)
	}
	if got.Get("city") != "Lowell" || got.Get("min_price") != "100" || got.Get("property_type") != "twn" || got.Get("zip_code") != "01852" {
		t.Fatalf("query = %v", got)
	}
	if got.Has("max_price") || got.Has("bedrooms") {
		t.Fatalf("empty params sent: %v", got)
	}

	rec, err := a.Listing(ctx, "k1")
	if err != nil || rec["listing_key"] != "k1" {
		t.Fatalf("record = %v err = %v", rec, err)
	}
	if _, err := a.Listing(ctx, "nope"); !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := a.Featured(ctx, 0); err != nil || got.Get("limit") != "6" {
		t.Fatalf("featured limit = %q err = %v", got.Get("limit"), err)
	}
	if err := a.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := a.Nearby(ctx, 42, -71, 5); !errors.Is(err, upstream.ErrUnsupported) {
		t.Fatalf("nearby err = %v", err)
	}
	if _, err := a.Sold(ctx, listing.SoldFilters{}); !errors.Is(err, upstream.ErrUnsupported) {
		t.Fatalf("sold err = %v", err)
	}
	if _, err := a.MarketStats(ctx, ""); !errors.Is(err, upstream.ErrUnsupported) {
		t.Fatalf("stats err = %v", err)
	}
}
