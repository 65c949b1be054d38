package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/yourorg/listings-api/internal/app"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeCaches := app.NewService(ctx, cfg, log)
	defer closeCaches()

	refresher := refresh.New(16, 2, 30*time.Second, log, func(ctx context.Context, j refresh.Job) error {
		return svc.Refresh(ctx, j.Kind)
	})
	defer refresher.Close()

	srv := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.Port),
		Handler: BuildRouter(RouterDeps{
			Config:    cfg,
			Service:   svc,
			Refresher: refresher,
			Logger:    log,
			StartedAt: time.Now(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listings-api listening", "addr", srv.Addr, "env", cfg.Server.Env, "source", svc.SourceName())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}
}
