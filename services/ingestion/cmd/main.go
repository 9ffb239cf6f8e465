package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"talentinsight/common/rawstore"
	"talentinsight/common/telemetry"
	"talentinsight/services/ingestion/internal/api"
	"talentinsight/services/ingestion/internal/config"
	"talentinsight/services/ingestion/internal/feeder"
	"talentinsight/services/ingestion/internal/ingestor"
	"talentinsight/services/ingestion/internal/messaging"
	"talentinsight/services/ingestion/internal/scheduler"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("failed to sync logger: %v", err)
		}
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger.Info("starting ingestion service",
		zap.String("raw_store", cfg.RawStoreDriver),
		zap.String("raw_dir", cfg.RawDir),
		zap.Duration("polling_interval", cfg.PollingInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "ingestion-service", cfg.OTELCollectorURL)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer()

	store, err := rawstore.Open(ctx, cfg.RawStore(), logger)
	if err != nil {
		logger.Fatal("failed to open raw store", zap.Error(err))
	}
	defer store.Close()

	responseCache := api.NewCache(cfg.Cache())
	defer responseCache.Close()

	var fetchers []api.Fetcher
	if cfg.AdzunaAppID != "" && cfg.AdzunaAPIKey != "" {
		fetchers = append(fetchers, api.NewAdzunaClient(cfg, responseCache, logger))
	} else {
		logger.Warn("ADZUNA_APP_ID or ADZUNA_API_KEY not set, skipping adzuna")
	}
	fetchers = append(fetchers, api.NewGitHubClient(cfg, responseCache, logger))

	ing := ingestor.New(store, logger)

	var fd scheduler.Feeder
	if cfg.RawDir != "" {
		fd = feeder.New(cfg.RawDir, ing, logger)
	}

	var publisher messaging.Publisher
	if cfg.NATSURL != "" {
		publisher, err = messaging.NewPublisher(logger, cfg)
		if err != nil {
			logger.Fatal("failed to create NATS publisher", zap.Error(err))
		}
	} else {
		publisher = messaging.LogPublisher{Logger: logger}
	}
	defer publisher.Close()

	jobScheduler := scheduler.NewJobScheduler(fetchers, ing, fd, publisher, logger, cfg)

	go func() {
		if err := jobScheduler.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("job scheduler failed", zap.Error(err))
		}
	}()

	logger.Info("ingestion service started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	jobScheduler.Stop()
	cancel()
	stats := jobScheduler.Stats()
	logger.Info("shutdown complete",
		zap.Int64("cycles", stats.Cycles),
		zap.Int64("stored", stats.Stored))
}
