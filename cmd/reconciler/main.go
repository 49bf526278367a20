package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/site-reconciliation-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/site-reconciliation-service/internal/adapter/kafka"
	"github.com/couchcryptid/site-reconciliation-service/internal/adapter/mapbox"
	"github.com/couchcryptid/site-reconciliation-service/internal/adapter/postgres"
	"github.com/couchcryptid/site-reconciliation-service/internal/adapter/sheet"
	"github.com/couchcryptid/site-reconciliation-service/internal/config"
	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
	"github.com/couchcryptid/site-reconciliation-service/internal/observability"
	"github.com/couchcryptid/site-reconciliation-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Geocoding fallback for unplottable rows (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheTTL, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_ttl", cfg.MapboxCacheTTL, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var sinks []pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}
	var store *postgres.Store
	if cfg.DatabaseURL != "" {
		store, err = postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to open postgres sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("postgres sink enabled")
	}

	source := sheet.New(cfg.SheetSource, cfg.SheetName, cfg.FetchTimeout, logger)
	transformer := pipeline.NewTransformer(cfg.Schema, geocoder, logger)
	p := pipeline.New(source, transformer, sinks, logger, metrics, cfg.RefreshInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// The HTTP server and the refresh loop share one lifetime: if either
	// fails the other is stopped.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		exitCode = 1
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		store.Close()
	}

	logger.Info("shutdown complete")
	stop()
	os.Exit(exitCode)
}
