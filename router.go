package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	httpapi "github.com/yourorg/listings-api/http"
	"github.com/yourorg/listings-api/internal/aggregate"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/logger"
)

type RouterDeps struct {
	Config    *config.Config
	Service   *aggregate.Service
	Refresher httpapi.Enqueuer
	Logger    *slog.Logger
	StartedAt time.Time
}

func BuildRouter(d RouterDeps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)) // protect upstream quota
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/", apiIndex)
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, map[string]any{
				"ok":        true,
				"status":    "OK",
				"source":    d.Service.SourceName(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		httpapi.RegisterListings(r, httpapi.ListingsDeps{
			Service:     d.Service,
			SearchLimit: httprate.LimitByIP(cfg.RateLimit.SearchMax, cfg.RateLimit.Window),
		})
		httpapi.RegisterMarket(r, httpapi.MarketDeps{Service: d.Service})
		httpapi.RegisterAdmin(r, httpapi.AdminDeps{
			Service:   d.Service,
			Refresher: d.Refresher,
			APIKey:    cfg.Server.AdminAPIKey,
			Config:    cfg.Redacted(),
			Env:       cfg.Server.Env,
			StartedAt: d.StartedAt,
		})
	})

	if dir := cfg.Server.StaticDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			d.Logger.Warn("static dir not served", "dir", dir, "err", err)
		}
	}
	return r
}

var endpoints = map[string]string{
	"GET /api/health":                      "service health",
	"GET /api/listings":                    "filtered, sorted, paginated listings",
	"GET /api/listings/featured/all":       "featured listings",
	"GET /api/listings/{mlsID}":            "one listing",
	"GET /api/listings/{mlsID}/photos":     "listing photos",
	"POST /api/listings/search":            "advanced search",
	"GET /api/listings/nearby/{lat}/{lng}": "listings near a point",
	"GET /api/listings/sold/recent":        "recently sold listings",
	"GET /api/market/stats":                "market statistics",
	"GET /api/market/cities":               "known cities",
	"GET /api/market/property-types":       "property type labels",
	"GET /api/market/trends":               "sales trends",
	"GET /api/market/price-distribution":   "price bands",
	"GET /api/admin/health":                "detailed health",
	"GET /api/admin/cache/stats":           "cache sizes",
	"POST /api/admin/cache/clear":          "drop every cache",
	"POST /api/admin/cache/refresh/{type}": "rebuild cities, property-types or featured",
	"GET /api/admin/config":                "redacted configuration",
	"GET /api/admin/test/connection":       "ping the upstream",
}

func apiIndex(w http.ResponseWriter, req *http.Request) {
	render.JSON(w, req, map[string]any{"ok": true, "name": "listings-api", "endpoints": endpoints})
}
