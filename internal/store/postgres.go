package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE TABLE IF NOT EXISTS properties (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		property_key  TEXT NOT NULL,
		address_line1 TEXT NOT NULL,
		city          TEXT NOT NULL,
		state         TEXT NOT NULL,
		zip           TEXT NOT NULL,
		lat           DOUBLE PRECISION,
		lng           DOUBLE PRECISION,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_properties_property_key ON properties(property_key);`,
	`CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);`,
	`CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		property_id    UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		source         TEXT NOT NULL,
		source_id      TEXT NOT NULL,
		mls_number     TEXT,
		status         TEXT NOT NULL,
		property_type  TEXT NOT NULL,
		price          INTEGER NOT NULL,
		sold_price     INTEGER,
		sold_date      DATE,
		bedrooms       SMALLINT NOT NULL,
		bathrooms      NUMERIC NOT NULL,
		sqft           INTEGER NOT NULL,
		days_on_market INTEGER NOT NULL,
		agent_id       TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_fetch_at  TIMESTAMPTZ
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_listings_source_ids ON listings(source, source_id);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_property ON listings(property_id);`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);`,
	`CREATE TABLE IF NOT EXISTS listing_photos (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		href       TEXT NOT NULL,
		position   INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_listphotos_listing ON listing_photos(listing_id);`,
	`CREATE TABLE IF NOT EXISTS listing_snapshots (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		listing_id     UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		payload        JSONB NOT NULL,
		payload_sha256 TEXT NOT NULL,
		fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_snapshots_listing_sha ON listing_snapshots(listing_id, payload_sha256);`,
}

// Migrate creates the schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type UpsertInput struct {
	PropertyKey string
	Address1    string
	City        string
	State       string
	Zip         string
	Lat         sql.NullFloat64
	Lng         sql.NullFloat64

	Source       string
	SourceID     string
	MLSNumber    sql.NullString
	Status       string
	PropertyType string
	Price        int
	SoldPrice    sql.NullInt64
	SoldDate     sql.NullString
	Bedrooms     int
	Bathrooms    float64
	Sqft         int
	DaysOnMarket int
	AgentID      sql.NullString
	Photos       []string

	PayloadJSON []byte
}

type UpsertResult struct {
	PropertyID string
	ListingID  string

	// Changed is false when the snapshot payload matched the last stored one.
	Changed bool
}

// WriteSnapshotAndUpsert upserts the property and listing rows, replaces the
// photo set and records the payload snapshot, all in one transaction.
func (s *Store) WriteSnapshotAndUpsert(ctx context.Context, in UpsertInput) (res UpsertResult, err error) {
	if s == nil || s.DB == nil {
		return res, errors.New("nil db")
	}
	if in.PropertyKey == "" {
		return res, errors.New("empty property key")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO properties (property_key, address_line1, city, state, zip, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (property_key)
		DO UPDATE SET address_line1=EXCLUDED.address_line1, city=EXCLUDED.city, state=EXCLUDED.state, zip=EXCLUDED.zip, lat=EXCLUDED.lat, lng=EXCLUDED.lng, updated_at=now()
		RETURNING id`,
		in.PropertyKey, in.Address1, in.City, in.State, in.Zip, in.Lat, in.Lng,
	).Scan(&res.PropertyID)
	if err != nil {
		return res, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO listings (property_id, source, source_id, mls_number, status, property_type, price, sold_price, sold_date, bedrooms, bathrooms, sqft, days_on_market, agent_id, last_fetch_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())
		ON CONFLICT (source, source_id)
		DO UPDATE SET property_id=EXCLUDED.property_id, mls_number=EXCLUDED.mls_number, status=EXCLUDED.status, property_type=EXCLUDED.property_type, price=EXCLUDED.price, sold_price=EXCLUDED.sold_price, sold_date=EXCLUDED.sold_date, bedrooms=EXCLUDED.bedrooms, bathrooms=EXCLUDED.bathrooms, sqft=EXCLUDED.sqft, days_on_market=EXCLUDED.days_on_market, agent_id=EXCLUDED.agent_id, updated_at=now(), last_fetch_at=now()
		RETURNING id`,
		res.PropertyID, in.Source, in.SourceID, in.MLSNumber, in.Status, in.PropertyType, in.Price, in.SoldPrice, in.SoldDate, in.Bedrooms, in.Bathrooms, in.Sqft, in.DaysOnMarket, in.AgentID,
	).Scan(&res.ListingID)
	if err != nil {
		return res, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM listing_photos WHERE listing_id=$1`, res.ListingID); err != nil {
		return res, err
	}
	for i, href := range in.Photos {
		if href == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO listing_photos (listing_id, href, position) VALUES ($1,$2,$3)`, res.ListingID, href, i); err != nil {
			return res, err
		}
	}

	sha := PayloadHash(in.PayloadJSON)
	tag, err := tx.ExecContext(ctx, `
		INSERT INTO listing_snapshots (listing_id, payload, payload_sha256)
		VALUES ($1,$2,$3)
		ON CONFLICT (listing_id, payload_sha256) DO NOTHING`,
		res.ListingID, string(in.PayloadJSON), sha)
	if err != nil {
		return res, err
	}
	if n, _ := tag.RowsAffected(); n > 0 {
		res.Changed = true
	}

	err = tx.Commit()
	return res, err
}

// CountByCity returns how many listings are stored per property city.
func (s *Store) CountByCity(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.city, count(*) FROM listings l JOIN properties p ON p.id = l.property_id GROUP BY p.city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var city string
		var n int
		if err := rows.Scan(&city, &n); err != nil {
			return nil, err
		}
		out[city] = n
	}
	return out, rows.Err()
}

func PayloadHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
