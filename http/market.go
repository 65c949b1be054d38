package httpapi

import (
	"cmp"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/yourorg/listings-api/internal/listing"
)

type MarketService interface {
	MarketStats(ctx context.Context, city string) (*listing.MarketStats, error)
	Cities(ctx context.Context) ([]string, error)
	PropertyTypes(ctx context.Context) (map[string]string, error)
	Trends(ctx context.Context, city, propertyType string, days int) (*listing.Trends, error)
	PriceDistribution(ctx context.Context, city, propertyType string) (*listing.PriceDistribution, error)
}

type MarketDeps struct {
	Service MarketService
}

func RegisterMarket(r chi.Router, d MarketDeps) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/stats", d.stats)
		r.Get("/cities", d.cities)
		r.Get("/property-types", d.propertyTypes)
		r.Get("/trends", d.trends)
		r.Get("/price-distribution", d.distribution)
	})
}

func (d MarketDeps) stats(w http.ResponseWriter, req *http.Request) {
	st, err := d.Service.MarketStats(req.Context(), newQuery(req).str("city"))
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "data": st})
}

func (d MarketDeps) cities(w http.ResponseWriter, req *http.Request) {
	cities, err := d.Service.Cities(req.Context())
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(cities), "data": cities})
}

func (d MarketDeps) propertyTypes(w http.ResponseWriter, req *http.Request) {
	types, err := d.Service.PropertyTypes(req.Context())
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "data": types})
}

func (d MarketDeps) trends(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req)
	city, pt := q.str("city"), q.str("propertyType")
	days := q.integer("period", listing.DefaultSoldDays)
	if err := q.err(); err != nil {
		writeServiceError(w, req, err)
		return
	}
	tr, err := d.Service.Trends(req.Context(), city, pt, days)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{
		"ok":   true,
		"data": tr,
		"parameters": map[string]any{
			"city":         cmp.Or(city, "All Massachusetts"),
			"propertyType": pt,
			"period":       days,
			"state":        "MA",
		},
	})
}

func (d MarketDeps) distribution(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req)
	city, pt := q.str("city"), q.str("propertyType")
	dist, err := d.Service.PriceDistribution(req.Context(), city, pt)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{
		"ok":         true,
		"data":       dist,
		"parameters": map[string]any{"city": cmp.Or(city, "All Massachusetts"), "propertyType": pt, "state": "MA"},
	})
}
