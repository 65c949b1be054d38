package hydrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/listings-api/internal/listing"
)

// Fetcher pages through normalized listings. *aggregate.Service implements it.
type Fetcher interface {
	Listings(ctx context.Context, f listing.Filters) (*listing.Page, error)
}

type BulkConfig struct {
	Cities               []string
	PropertyTypes        []string
	PageSize             int
	MaxPagesPerCity      int
	Interval             time.Duration
	PauseBetweenRequests time.Duration
	RequestTimeout       time.Duration
}

type BulkJob struct {
	Source   Fetcher
	Hydrator *Hydrator
	Logger   *slog.Logger
	Config   BulkConfig
}

func (j *BulkJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *BulkJob) validate() error {
	if j == nil {
		return errors.New("nil bulk job")
	}
	if j.Source == nil {
		return errors.New("hydrator bulk job missing listing source")
	}
	if !j.Hydrator.Enabled() {
		return errors.New("hydrator bulk job requires hydrator with store")
	}
	if len(j.Config.Cities) == 0 {
		return errors.New("hydrator bulk job requires at least one city")
	}
	return nil
}

func (j *BulkJob) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		return j.RunOnce(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.log().Info("hydrator bulk job starting", "interval", interval, "cities", len(j.Config.Cities))
	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.log().Error("hydrator bulk job initial run", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			j.log().Info("hydrator bulk job stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.log().Error("hydrator bulk job iteration", "err", err)
			}
		}
	}
}

// RunOnce walks every configured city and property type once. Per-city
// failures are joined; cancellation aborts immediately.
func (j *BulkJob) RunOnce(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	propTypes := j.Config.PropertyTypes
	if len(propTypes) == 0 {
		propTypes = []string{""}
	}
	var joined error
	for _, raw := range j.Config.Cities {
		city := strings.TrimSpace(raw)
		if city == "" {
			continue
		}
		for _, pt := range propTypes {
			if err := j.ingestCity(ctx, city, pt); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				joined = errors.Join(joined, err)
			}
		}
	}
	return joined
}

func (j *BulkJob) ingestCity(ctx context.Context, city, propertyType string) error {
	pageSize := min(j.Config.PageSize, listing.MaxLimit)
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := j.Config.MaxPagesPerCity
	if maxPages <= 0 {
		maxPages = 5
	}
	timeout := j.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pause := j.Config.PauseBetweenRequests
	saved := 0
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		res, err := j.Source.Listings(reqCtx, listing.Filters{City: city, PropertyType: propertyType, Page: page, Limit: pageSize})
		cancel()
		if err != nil {
			return fmt.Errorf("city %s page %d fetch: %w", city, page, err)
		}
		if len(res.Items) == 0 {
			if page == 1 {
				j.log().Info("hydrator bulk job city returned 0 listings", "city", city)
			}
			break
		}
		for _, l := range res.Items {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := j.Hydrator.Write(ctx, l); err != nil {
				j.log().Warn("hydrator bulk job listing", "city", city, "listing_id", l.ID, "err", err)
				continue
			}
			saved++
		}
		if !res.Pagination.HasNext {
			break
		}
		if pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	if saved > 0 {
		j.log().Info("hydrator bulk job city persisted", "city", city, "property_type", propertyType, "listings", saved)
	}
	return nil
}
