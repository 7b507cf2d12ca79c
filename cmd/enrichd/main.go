package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/fishing-log-enrichment/internal/adapter/http"
	"github.com/couchcryptid/fishing-log-enrichment/internal/app"
	"github.com/couchcryptid/fishing-log-enrichment/internal/config"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
	"github.com/couchcryptid/fishing-log-enrichment/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.Enricher, a.Enricher, logger)
	sched := scheduler.New(a.Enricher, cfg.BackfillGroups, cfg.BackfillInterval, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		logger.Error("backfill scheduler error", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("close error", "error", err)
	}

	logger.Info("shutdown complete")
}
