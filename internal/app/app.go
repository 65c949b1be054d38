// Package app assembles the aggregation service from configuration. Both
// the API server and the hydrator build their listing source through it.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/listings-api/internal/aggregate"
	"github.com/yourorg/listings-api/internal/cache"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/mockdata"
	"github.com/yourorg/listings-api/internal/normalize"
	"github.com/yourorg/listings-api/internal/redisx"
	"github.com/yourorg/listings-api/internal/upstream"
	"github.com/yourorg/listings-api/internal/upstream/partner"
	"github.com/yourorg/listings-api/internal/upstream/secondary"
)

// NewCaches returns the configured cache backend. A Redis backend that
// does not answer a ping degrades to in-process caches.
func NewCaches(ctx context.Context, cfg *config.Config, log *slog.Logger) (*cache.Set, func()) {
	ttls := cache.TTLs{
		Listings:  cfg.Cache.ListingsTTL,
		Reference: cfg.Cache.ReferenceTTL,
		Stats:     cfg.Cache.StatsTTL,
	}
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemorySet(ttls), func() {}
	}
	rc := redisx.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, using memory cache", "addr", cfg.Cache.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.NewMemorySet(ttls), func() {}
	}
	log.Info("redis cache connected", "addr", cfg.Cache.RedisAddr)
	return cache.NewRedisSet(rc, ttls, log), func() { _ = rc.Close() }
}

// NewPrimary returns the configured upstream, or nil when the mock set is
// the only source.
func NewPrimary(cfg *config.Config, caches *cache.Set, log *slog.Logger) upstream.Source {
	switch cfg.SourceKind() {
	case config.SourcePartner:
		return partner.New(partner.Config{
			BaseURL:    cfg.Partner.BaseURL,
			APIKey:     cfg.Partner.APIKey,
			PartnerKey: cfg.Partner.PartnerKey,
			Timeout:    cfg.Partner.Timeout,
			RPS:        cfg.Partner.RPS,
		}, caches, log)
	case config.SourceSecondary:
		return secondary.New(secondary.Config{
			BaseURL: cfg.Secondary.BaseURL,
			Timeout: cfg.Secondary.Timeout,
			RPS:     cfg.Secondary.RPS,
		}, caches, log)
	}
	return nil
}

// NewService wires caches, sources and the normalizer. The returned func
// releases the cache backend.
func NewService(ctx context.Context, cfg *config.Config, log *slog.Logger) (*aggregate.Service, func()) {
	caches, closeCaches := NewCaches(ctx, cfg, log)

	mock := mockdata.New(mockdata.Options{
		Lat:    cfg.Listings.RegionLat,
		Lng:    cfg.Listings.RegionLng,
		Cities: cfg.Cities(),
	})
	primary := NewPrimary(cfg, caches, log)

	norm := normalize.New(log)
	if cfg.Listings.PhotoCount > 0 {
		norm.PhotoCount = cfg.Listings.PhotoCount
	}
	if cfg.Listings.RegionLat != 0 || cfg.Listings.RegionLng != 0 {
		norm.Lat, norm.Lng = cfg.Listings.RegionLat, cfg.Listings.RegionLng
	}

	svc := aggregate.New(aggregate.Config{
		PinnedAgent:   cfg.Listings.PinnedAgent,
		FeaturedCount: cfg.Listings.FeaturedCount,
		Cities:        cfg.Cities(),
	}, primary, mock, norm, caches, log)
	log.Info("listing source selected", "source", svc.SourceName(), "cache", cfg.Cache.Backend)
	return svc, closeCaches
}
