package hydrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/yourorg/listings-api/internal/canon"
	"github.com/yourorg/listings-api/internal/events"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/store"
)

// Writer persists one listing snapshot. *store.Store implements it.
type Writer interface {
	WriteSnapshotAndUpsert(ctx context.Context, in store.UpsertInput) (store.UpsertResult, error)
}

type Hydrator struct {
	Store Writer
	Pub   events.Publisher
}

func (h *Hydrator) Enabled() bool { return h != nil && h.Store != nil }

// Write persists l and publishes ListingSaved on success.
func (h *Hydrator) Write(ctx context.Context, l listing.Listing) error {
	if !h.Enabled() {
		return nil
	}
	in, err := upsertInput(l)
	if err != nil {
		return err
	}
	res, err := h.Store.WriteSnapshotAndUpsert(ctx, in)
	if err != nil {
		return err
	}
	if h.Pub != nil {
		h.Pub.PublishListingSaved(ctx, events.ListingSaved{
			ListingID:   res.ListingID,
			PropertyKey: in.PropertyKey,
			City:        l.City,
			Source:      l.Source,
		})
	}
	return nil
}

func upsertInput(l listing.Listing) (store.UpsertInput, error) {
	addr := canon.FromListing(l)
	if addr.Key == "" {
		return store.UpsertInput{}, errors.New("incomplete address data")
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return store.UpsertInput{}, err
	}
	in := store.UpsertInput{
		PropertyKey:  addr.Key,
		Address1:     addr.Line1,
		City:         addr.City,
		State:        addr.State,
		Zip:          addr.Zip,
		Lat:          sqlNullFloat(l.Lat),
		Lng:          sqlNullFloat(l.Lng),
		Source:       l.Source,
		SourceID:     l.ID,
		MLSNumber:    sqlNullString(l.MLSNumber),
		Status:       string(l.Status),
		PropertyType: string(l.PropertyType),
		Price:        l.Price,
		SoldDate:     sqlNullString(l.SoldDate),
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Sqft:         l.Sqft,
		DaysOnMarket: l.DaysOnMarket,
		AgentID:      sqlNullString(l.AgentID),
		Photos:       l.Images,
		PayloadJSON:  payload,
	}
	if l.SoldPrice != nil {
		in.SoldPrice = sql.NullInt64{Int64: int64(*l.SoldPrice), Valid: true}
	}
	return in, nil
}

func sqlNullFloat(v float64) sql.NullFloat64 {
	if v == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func sqlNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
