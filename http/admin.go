package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/yourorg/listings-api/internal/aggregate"
	"github.com/yourorg/listings-api/internal/refresh"
)

type AdminService interface {
	CacheStats(ctx context.Context) aggregate.CacheStats
	ClearCache(ctx context.Context)
	Ping(ctx context.Context) error
	SourceName() string
}

// Enqueuer accepts cache refresh jobs. *refresh.Refresher implements it.
type Enqueuer interface {
	Enqueue(j refresh.Job) bool
}

type AdminDeps struct {
	Service   AdminService
	Refresher Enqueuer

	// APIKey, when set, must be sent as X-API-Key on every admin route.
	APIKey string

	// Config is the redacted configuration returned by /admin/config.
	Config    any
	Env       string
	StartedAt time.Time
}

func RegisterAdmin(r chi.Router, d AdminDeps) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAPIKey(d.APIKey))
		r.Get("/health", d.health)
		r.Get("/cache/stats", d.cacheStats)
		r.Post("/cache/clear", d.cacheClear)
		r.Post("/cache/refresh/{type}", d.cacheRefresh)
		r.Get("/config", d.config)
		r.Get("/test/connection", d.testConnection)
	})
}

// RequireAPIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got := req.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, req, http.StatusUnauthorized, "unauthorized", "valid X-API-Key header required")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (d AdminDeps) health(w http.ResponseWriter, req *http.Request) {
	uptime := time.Duration(0)
	if !d.StartedAt.IsZero() {
		uptime = time.Since(d.StartedAt).Round(time.Second)
	}
	render.JSON(w, req, map[string]any{
		"ok": true,
		"data": map[string]any{
			"status":      "OK",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      uptime.String(),
			"environment": d.Env,
			"source":      d.Service.SourceName(),
			"cache":       d.Service.CacheStats(req.Context()),
		},
	})
}

func (d AdminDeps) cacheStats(w http.ResponseWriter, req *http.Request) {
	render.JSON(w, req, map[string]any{"ok": true, "data": d.Service.CacheStats(req.Context())})
}

func (d AdminDeps) cacheClear(w http.ResponseWriter, req *http.Request) {
	d.Service.ClearCache(req.Context())
	render.JSON(w, req, map[string]any{"ok": true, "message": "all caches cleared"})
}

func (d AdminDeps) cacheRefresh(w http.ResponseWriter, req *http.Request) {
	kind := chi.URLParam(req, "type")
	if !slices.Contains(aggregate.RefreshKinds, kind) {
		writeError(w, req, http.StatusBadRequest, "invalid_cache_type", map[string]any{"valid": aggregate.RefreshKinds})
		return
	}
	if d.Refresher == nil || !d.Refresher.Enqueue(refresh.Job{Kind: kind}) {
		writeError(w, req, http.StatusServiceUnavailable, "refresh_unavailable", "refresh queue is full")
		return
	}
	render.Status(req, http.StatusAccepted)
	render.JSON(w, req, map[string]any{"ok": true, "type": kind, "queued": true})
}

func (d AdminDeps) config(w http.ResponseWriter, req *http.Request) {
	render.JSON(w, req, map[string]any{"ok": true, "data": d.Config})
}

func (d AdminDeps) testConnection(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
	defer cancel()
	start := time.Now()
	err := d.Service.Ping(ctx)
	body := map[string]any{
		"source":  d.Service.SourceName(),
		"latency": time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		body["ok"] = false
		body["error"] = "upstream_unreachable"
		body["detail"] = err.Error()
		render.Status(req, http.StatusBadGateway)
		render.JSON(w, req, body)
		return
	}
	body["ok"] = true
	render.JSON(w, req, body)
}
