package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/db"
	"github.com/quotehub/quotehub-backend/pkg/docengine"
	"github.com/quotehub/quotehub-backend/pkg/instance"
	"github.com/quotehub/quotehub-backend/pkg/lock"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/metrics"
	"github.com/quotehub/quotehub-backend/pkg/migrate"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/redis"
	"github.com/quotehub/quotehub-backend/pkg/storage"
)

const defaultClaimBatch = 10

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	locks, err := lock.NewProvider(redisClient, cfg.Lock)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock provider", err)
		os.Exit(1)
	}

	store, err := storage.NewStore(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap file storage", err)
		os.Exit(1)
	}

	engine, err := docengine.NewClient(context.Background(), cfg.DocEngine, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap document engine client", err)
		os.Exit(1)
	}

	processingMetrics := metrics.NewProcessingMetrics(prometheus.DefaultRegisterer)
	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	columnsRepo := columns.NewRepository(dbClient.DB())
	materializer := ingest.NewMaterializer(columns.NewResolver(columnsRepo))
	importedRepo := ingest.NewRepository(dbClient.DB())
	rowsService, err := ingest.NewService(importedRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	projector := mappedrows.NewProjector(importedRepo, cfg.Processing.RowChunkSize)
	mappedRowsService, err := mappedrows.NewService(projector, mappedrows.NewRepository(dbClient.DB()), events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mapped rows service", err)
		os.Exit(1)
	}

	filesRepo := docprocess.NewRepository(dbClient.DB())
	registry := docprocess.NewDefaultRegistry(docprocess.ProcessorDeps{
		DB:           dbClient.DB(),
		Store:        store,
		Engine:       engine,
		Materializer: materializer,
		Rows:         rowsService,
		Schedules:    docprocess.NewScheduleRepository(dbClient.DB()),
		Logg:         logg,
	})

	processService, err := docprocess.NewService(
		dbClient.DB(),
		filesRepo,
		docprocess.NewMappingRepository(dbClient.DB()),
		quotes.NewRepository(dbClient.DB()),
		importedRepo,
		columnsRepo,
		registry,
		mappedRowsService,
		locks,
		events,
		processingMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create document processing service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting processing worker")

	runWorker(ctx, cfg, logg, processService)
	logg.Info(ctx, "processing worker shutting down gracefully")
}

func runWorker(ctx context.Context, cfg *config.Config, logg *logger.Logger, svc docprocess.Service) {
	pollMs := cfg.Processing.WorkerPollMs
	if pollMs <= 0 {
		pollMs = 1000
	}
	deadline := cfg.Processing.WorkerDeadline
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}

	ticker := time.NewTicker(time.Duration(pollMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycleCtx, cancel := context.WithTimeout(ctx, deadline)
			processed, err := svc.ProcessQueued(cycleCtx, defaultClaimBatch)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "worker cycle finished with errors", err)
			}
			if processed > 0 {
				logg.Info(logg.WithField(ctx, "processed", processed), "worker cycle complete")
			}
		}
	}
}
