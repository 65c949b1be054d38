package hydrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/yourorg/listings-api/internal/events"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/store"
)

type memWriter struct {
	mu   sync.Mutex
	rows []store.UpsertInput
	fail string
}

func (m *memWriter) WriteSnapshotAndUpsert(_ context.Context, in store.UpsertInput) (store.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.SourceID == m.fail {
		return store.UpsertResult{}, errors.New("boom")
	}
	m.rows = append(m.rows, in)
	return store.UpsertResult{PropertyID: "p-" + in.PropertyKey, ListingID: "l-" + in.SourceID, Changed: true}, nil
}

func sample(id, city string) listing.Listing {
	sold := 510000
	return listing.Listing{
		ID:           id,
		MLSNumber:    id,
		Price:        500000,
		Address:      fmt.Sprintf("%s Main Street, %s, MA 01826", strings.TrimPrefix(id, "MA"), city),
		City:         city,
		State:        "MA",
		ZipCode:      "01826",
		Bedrooms:     3,
		Bathrooms:    2,
		PropertyType: listing.Houses,
		Status:       listing.Sold,
		SoldPrice:    &sold,
		SoldDate:     "2024-02-01",
		Images:       []string{"a.jpg", "b.jpg"},
		Lat:          42.67,
		Lng:          -71.30,
		Source:       "mock",
	}
}

func TestWriteMapsListingAndPublishes(t *testing.T) {
	w := &memWriter{}
	pub := events.NewInMemory(4)
	h := &Hydrator{Store: w, Pub: pub}
	if err := h.Write(context.Background(), sample("MA000001", "Dracut")); err != nil {
		t.Fatal(err)
	}
	row := w.rows[0]
	if row.PropertyKey != "000001 main st|dracut|ma|01826" || row.Address1 != "000001 MAIN ST" {
		t.Fatalf("address = %q %q", row.PropertyKey, row.Address1)
	}
	if row.Status != "sold" || row.PropertyType != "houses" || !row.SoldPrice.Valid || row.SoldPrice.Int64 != 510000 {
		t.Fatalf("row = %+v", row)
	}
	if !strings.Contains(string(row.PayloadJSON), `"mlsNumber":"MA000001"`) || len(row.Photos) != 2 {
		t.Fatalf("payload = %s", row.PayloadJSON)
	}
	evt := <-pub.SubscribeListingSaved()
	if evt.ListingID != "l-MA000001" || evt.City != "Dracut" {
		t.Fatalf("event = %+v", evt)
	}
}

func TestWriteRejectsMissingAddress(t *testing.T) {
	h := &Hydrator{Store: &memWriter{}}
	if err := h.Write(context.Background(), listing.Listing{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
	var off *Hydrator
	if err := off.Write(context.Background(), sample("MA1", "Dracut")); err != nil {
		t.Fatalf("disabled hydrator should be a no-op, got %v", err)
	}
}

type pagedFetcher struct {
	byCity map[string][]listing.Listing
	calls  []listing.Filters
	err    map[string]error
}

func (p *pagedFetcher) Listings(_ context.Context, f listing.Filters) (*listing.Page, error) {
	p.calls = append(p.calls, f)
	if err := p.err[f.City]; err != nil {
		return nil, err
	}
	page := listing.Paginate(p.byCity[f.City], f.Page, f.Limit)
	return &page, nil
}

func TestRunOnceWalksPages(t *testing.T) {
	var ls []listing.Listing
	for i := range 5 {
		ls = append(ls, sample(fmt.Sprintf("MA%06d", i), "Dracut"))
	}
	f := &pagedFetcher{byCity: map[string][]listing.Listing{"Dracut": ls}}
	w := &memWriter{fail: "MA000003"}
	job := &BulkJob{
		Source:   f,
		Hydrator: &Hydrator{Store: w},
		Config:   BulkConfig{Cities: []string{"Dracut", " "}, PageSize: 2, MaxPagesPerCity: 10},
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 3 {
		t.Fatalf("fetched %d pages, want 3", len(f.calls))
	}
	if len(w.rows) != 4 {
		t.Fatalf("persisted %d, want 4 (one write fails)", len(w.rows))
	}
}

func TestRunOnceJoinsCityErrors(t *testing.T) {
	f := &pagedFetcher{err: map[string]error{"Lowell": errors.New("down"), "Salem": errors.New("also down")}}
	job := &BulkJob{
		Source:   f,
		Hydrator: &Hydrator{Store: &memWriter{}},
		Config:   BulkConfig{Cities: []string{"Lowell", "Dracut", "Salem"}},
	}
	err := job.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Lowell") || !strings.Contains(err.Error(), "Salem") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunValidates(t *testing.T) {
	tests := []struct {
		name string
		job  *BulkJob
	}{
		{"no source", &BulkJob{Hydrator: &Hydrator{Store: &memWriter{}}, Config: BulkConfig{Cities: []string{"Dracut"}}}},
		{"no store", &BulkJob{Source: &pagedFetcher{}, Hydrator: &Hydrator{}, Config: BulkConfig{Cities: []string{"Dracut"}}}},
		{"no cities", &BulkJob{Source: &pagedFetcher{}, Hydrator: &Hydrator{Store: &memWriter{}}}},
	}
	for _, tt := range tests {
		if err := tt.job.Run(context.Background()); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := &BulkJob{
		Source:   &pagedFetcher{},
		Hydrator: &Hydrator{Store: &memWriter{}},
		Config:   BulkConfig{Cities: []string{"Dracut"}, Interval: 1},
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("canceled run should return nil, got %v", err)
	}
}
