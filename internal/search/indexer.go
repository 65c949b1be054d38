package search

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/yourorg/listings-api/internal/events"
)

// Indexer consumes ListingSaved events and keeps per-city listing counts.
type Indexer struct {
	Pub events.Publisher
	Log *slog.Logger

	mu     sync.Mutex
	cities map[string]map[string]struct{}
}

// Run blocks until ctx is done or the publisher is closed.
func (ix *Indexer) Run(ctx context.Context) {
	if ix == nil || ix.Pub == nil {
		return
	}
	log := ix.Log
	if log == nil {
		log = slog.Default()
	}
	ch := ix.Pub.SubscribeListingSaved()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			n := ix.add(evt)
			log.Debug("indexed listing", "listing_id", evt.ListingID, "city", evt.City, "city_count", n)
		}
	}
}

func (ix *Indexer) add(evt events.ListingSaved) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cities == nil {
		ix.cities = map[string]map[string]struct{}{}
	}
	set := ix.cities[evt.City]
	if set == nil {
		set = map[string]struct{}{}
		ix.cities[evt.City] = set
	}
	set[evt.ListingID] = struct{}{}
	return len(set)
}

// Counts returns the number of distinct listings seen per city.
func (ix *Indexer) Counts() map[string]int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make(map[string]int, len(ix.cities))
	for city, set := range ix.cities {
		out[city] = len(set)
	}
	return out
}

// Report logs the current counts at info level.
func (ix *Indexer) Report(log *slog.Logger) {
	counts := ix.Counts()
	total := 0
	for v := range maps.Values(counts) {
		total += v
	}
	log.Info("listing index", "cities", len(counts), "listings", total, "per_city", counts)
}
