package search

import (
	"context"
	"testing"

	"github.com/yourorg/listings-api/internal/events"
)

func TestIndexerCountsDistinctListingsPerCity(t *testing.T) {
	pub := events.NewInMemory(8)
	ix := &Indexer{Pub: pub}
	ctx := context.Background()
	for _, e := range []events.ListingSaved{
		{ListingID: "a", City: "Dracut"},
		{ListingID: "b", City: "Dracut"},
		{ListingID: "a", City: "Dracut"},
		{ListingID: "c", City: "Lowell"},
	} {
		pub.PublishListingSaved(ctx, e)
	}
	pub.Close()
	ix.Run(ctx)

	got := ix.Counts()
	if got["Dracut"] != 2 || got["Lowell"] != 1 || len(got) != 2 {
		t.Fatalf("counts = %v", got)
	}
}

func TestIndexerStopsOnCancel(t *testing.T) {
	ix := &Indexer{Pub: events.NewInMemory(1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ix.Run(ctx)
	if len(ix.Counts()) != 0 {
		t.Fatal("expected no counts")
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	pub := events.NewInMemory(1)
	pub.PublishListingSaved(context.Background(), events.ListingSaved{ListingID: "a"})
	pub.PublishListingSaved(context.Background(), events.ListingSaved{ListingID: "b"})
	pub.Close()
	n := 0
	for range pub.SubscribeListingSaved() {
		n++
	}
	if n != 1 {
		t.Fatalf("delivered %d events, want 1", n)
	}
}
