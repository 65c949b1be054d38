package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/listings-api/internal/redisx"
)

const (
	DefaultListingsTTL  = 5 * time.Minute
	DefaultReferenceTTL = time.Hour
	DefaultStatsTTL     = 30 * time.Minute
)

type TTLs struct {
	Listings  time.Duration
	Reference time.Duration
	Stats     time.Duration
}

func (t TTLs) withDefaults() TTLs {
	if t.Listings <= 0 {
		t.Listings = DefaultListingsTTL
	}
	if t.Reference <= 0 {
		t.Reference = DefaultReferenceTTL
	}
	if t.Stats <= 0 {
		t.Stats = DefaultStatsTTL
	}
	return t
}

// Set groups the caches by volatility: listing queries, reference data
// (cities, property types) and market statistics. Entries are raw upstream
// response bodies.
type Set struct {
	Listings  Cache[[]byte]
	Reference Cache[[]byte]
	Stats     Cache[[]byte]
}

func NewMemorySet(ttls TTLs) *Set {
	ttls = ttls.withDefaults()
	return &Set{
		Listings:  NewTTL[[]byte](ttls.Listings),
		Reference: NewTTL[[]byte](ttls.Reference),
		Stats:     NewTTL[[]byte](ttls.Stats),
	}
}

func NewRedisSet(client *redisx.Client, ttls TTLs, log *slog.Logger) *Set {
	ttls = ttls.withDefaults()
	return &Set{
		Listings:  NewRedis[[]byte](client, "listings:", ttls.Listings, log),
		Reference: NewRedis[[]byte](client, "reference:", ttls.Reference, log),
		Stats:     NewRedis[[]byte](client, "stats:", ttls.Stats, log),
	}
}

func (s *Set) Clear(ctx context.Context) {
	if s == nil {
		return
	}
	s.Listings.Clear(ctx)
	s.Reference.Clear(ctx)
	s.Stats.Clear(ctx)
}

func (s *Set) Sizes(ctx context.Context) map[string]int {
	if s == nil {
		return map[string]int{"listings": 0, "reference": 0, "stats": 0}
	}
	return map[string]int{
		"listings":  s.Listings.Size(ctx),
		"reference": s.Reference.Size(ctx),
		"stats":     s.Stats.Size(ctx),
	}
}
