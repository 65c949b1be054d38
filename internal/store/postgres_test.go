package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

func TestPayloadHashIsStable(t *testing.T) {
	a := PayloadHash([]byte(`{"id":"1"}`))
	if a != PayloadHash([]byte(`{"id":"1"}`)) || len(a) != 64 {
		t.Fatalf("hash = %s", a)
	}
	if a == PayloadHash([]byte(`{"id":"2"}`)) {
		t.Fatal("different payloads share a hash")
	}
}

func TestWriteRejectsMissingKey(t *testing.T) {
	s := &Store{DB: &sql.DB{}}
	if _, err := s.WriteSnapshotAndUpsert(context.Background(), UpsertInput{}); err == nil {
		t.Fatal("expected error for empty property key")
	}
	var nilStore *Store
	if _, err := nilStore.WriteSnapshotAndUpsert(context.Background(), UpsertInput{PropertyKey: "k"}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

// Runs against a real database when TEST_PG_DSN is set.
func TestUpsertRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	s, err := Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	in := UpsertInput{
		PropertyKey:  "1 test st|dracut|ma|01826",
		Address1:     "1 TEST ST",
		City:         "DRACUT",
		State:        "MA",
		Zip:          "01826",
		Source:       "mock",
		SourceID:     "TEST0001",
		Status:       "sale",
		PropertyType: "houses",
		Price:        500000,
		Bedrooms:     3,
		Bathrooms:    2,
		Sqft:         1800,
		Photos:       []string{"https://example.com/1.jpg"},
		PayloadJSON:  []byte(`{"id":"TEST0001"}`),
	}
	first, err := s.WriteSnapshotAndUpsert(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.WriteSnapshotAndUpsert(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if first.ListingID != second.ListingID || second.Changed {
		t.Fatalf("first = %+v second = %+v", first, second)
	}
	counts, err := s.CountByCity(ctx)
	if err != nil || counts["DRACUT"] < 1 {
		t.Fatalf("counts = %v err = %v", counts, err)
	}
}
