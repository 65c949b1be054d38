package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/listings-api/internal/app"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/events"
	"github.com/yourorg/listings-api/internal/hydrator"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/search"
	"github.com/yourorg/listings-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error", "json").Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format).With("component", "hydrator")

	if cfg.Hydrator.PGDSN == "" {
		log.Error("PG_DSN must be provided")
		os.Exit(1)
	}
	cities := cfg.Hydrator.Cities
	if len(cities) == 0 {
		cities = cfg.Cities()
	}

	st, err := store.Open(cfg.Hydrator.PGDSN)
	if err != nil {
		log.Error("store open", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		log.Error("postgres ping", "err", err)
		os.Exit(1)
	}
	if err := st.Migrate(ctx); err != nil {
		cancel()
		log.Error("postgres migrate", "err", err)
		os.Exit(1)
	}
	cancel()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeCaches := app.NewService(rootCtx, cfg, log)
	defer closeCaches()

	pub := events.NewInMemory(256)
	ix := &search.Indexer{Pub: pub, Log: log}
	indexDone := make(chan struct{})
	go func() {
		ix.Run(rootCtx)
		close(indexDone)
	}()

	job := &hydrator.BulkJob{
		Source:   svc,
		Hydrator: &hydrator.Hydrator{Store: st, Pub: pub},
		Logger:   log,
		Config: hydrator.BulkConfig{
			Cities:               cities,
			PageSize:             cfg.Hydrator.PageSize,
			MaxPagesPerCity:      cfg.Hydrator.MaxPages,
			Interval:             cfg.Hydrator.Interval,
			PauseBetweenRequests: cfg.Hydrator.Pause,
		},
	}

	if cfg.Hydrator.RunOnce {
		err = job.RunOnce(rootCtx)
	} else {
		err = job.Run(rootCtx)
	}
	pub.Close()
	<-indexDone
	ix.Report(log)
	countCtx, cancelCount := context.WithTimeout(context.Background(), 5*time.Second)
	if counts, cerr := st.CountByCity(countCtx); cerr == nil {
		log.Info("stored listings", "per_city", counts)
	}
	cancelCount()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("hydrator stopped", "err", err)
		os.Exit(1)
	}
}
