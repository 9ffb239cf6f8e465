package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"talentinsight/common/database"
	"talentinsight/common/rawstore"
	"talentinsight/common/telemetry"
	"talentinsight/services/processing/internal/catalog"
	"talentinsight/services/processing/internal/cleaner"
	"talentinsight/services/processing/internal/config"
	"talentinsight/services/processing/internal/events"
	"talentinsight/services/processing/internal/pipeline"
	"talentinsight/services/processing/internal/warehouse"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConnection(cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name("processing-service"),
		nats.RetryOnFailedConnect(true),
	}
	return nats.Connect(cfg.NATSURL, opts...)
}

func newWarehouseDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := database.NewSQLite(context.Background(), cfg.WarehousePath, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return db.Close() }})
	return db, nil
}

func newRawStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (rawstore.Store, error) {
	store, err := rawstore.Open(context.Background(), cfg.RawStore(), logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return store.Close() }})
	return store, nil
}

func newCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.Load(cfg.CatalogPath)
}

func newLoader(db *sql.DB, cat *catalog.Catalog, cfg *config.Config, logger *zap.Logger) (*warehouse.Loader, error) {
	horizon, err := cfg.Horizon()
	if err != nil {
		return nil, err
	}
	return warehouse.NewLoader(db, cat, horizon, logger), nil
}

func newPipeline(store rawstore.Store, c *cleaner.Cleaner, loader *warehouse.Loader, cfg *config.Config, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(store, c, loader, pipeline.Options{Concurrency: cfg.CleanConcurrency}, logger)
}

func newHandler(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, p *pipeline.Pipeline, cfg *config.Config) *events.Handler {
	return events.NewHandler(logger, nc, tracer, p, cfg.RunTimeout)
}

func newTracer() trace.Tracer {
	return telemetry.GetTracer("talentinsight/processing")
}

func initTelemetry(lc fx.Lifecycle, cfg *config.Config) error {
	shutdown, err := telemetry.InitTracer(context.Background(), "processing-service", cfg.OTELCollectorURL)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
		shutdown()
		return nil
	}})
	return nil
}

// runOnStart kicks off one run in the background so the warehouse is fresh
// without waiting for the next ingestion cycle.
func runOnStart(lc fx.Lifecycle, cfg *config.Config, p *pipeline.Pipeline, logger *zap.Logger) {
	if !cfg.RunOnStart {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				runCtx, done := context.WithTimeout(ctx, cfg.RunTimeout)
				defer done()
				if _, err := p.Run(runCtx); err != nil {
					logger.Error("Startup pipeline run failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newNATSConnection,
			newWarehouseDB,
			newRawStore,
			newCatalog,
			cleaner.New,
			newLoader,
			newPipeline,
			newHandler,
			newTracer,
		),
		fx.Invoke(
			initTelemetry,
			func(handler *events.Handler, lc fx.Lifecycle) error {
				return handler.RegisterSubscriptions(lc)
			},
			runOnStart,
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
