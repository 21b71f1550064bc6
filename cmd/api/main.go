package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/quotehub/quotehub-backend/api/routes"
	"github.com/quotehub/quotehub-backend/internal/columns"
	"github.com/quotehub/quotehub-backend/internal/comparison"
	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/groups"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/db"
	"github.com/quotehub/quotehub-backend/pkg/docengine"
	"github.com/quotehub/quotehub-backend/pkg/lock"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/metrics"
	"github.com/quotehub/quotehub-backend/pkg/migrate"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/redis"
	"github.com/quotehub/quotehub-backend/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	processingMetrics := metrics.NewProcessingMetrics(promRegistry)

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	columnsRepo := columns.NewRepository(dbClient.DB())
	resolver := columns.NewResolver(columnsRepo)
	materializer := ingest.NewMaterializer(resolver)
	importedRepo := ingest.NewRepository(dbClient.DB())
	rowsService, err := ingest.NewService(importedRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest service", err)
		os.Exit(1)
	}

	quotesRepo := quotes.NewRepository(dbClient.DB())
	quotesService, err := quotes.NewService(quotesRepo, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quotes service", err)
		os.Exit(1)
	}

	filesRepo := docprocess.NewRepository(dbClient.DB())
	scheduleRepo := docprocess.NewScheduleRepository(dbClient.DB())
	mappingRepo := docprocess.NewMappingRepository(dbClient.DB())

	registry := docprocess.NewDefaultRegistry(docprocess.ProcessorDeps{
		DB:           dbClient.DB(),
		Store:        store,
		Engine:       engine,
		Materializer: materializer,
		Rows:         rowsService,
		Schedules:    scheduleRepo,
		Logg:         logg,
	})

	projector := mappedrows.NewProjector(importedRepo, cfg.Processing.RowChunkSize)
	mappedRowsService, err := mappedrows.NewService(projector, mappedrows.NewRepository(dbClient.DB()), events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mapped rows service", err)
		os.Exit(1)
	}

	processService, err := docprocess.NewService(
		dbClient.DB(),
		filesRepo,
		mappingRepo,
		quotesRepo,
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

	groupsService, err := groups.NewService(dbClient.DB(), quotesService, quotesRepo, locks, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create groups service", err)
		os.Exit(1)
	}

	comparisonService, err := comparison.NewService(filesRepo, importedRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create comparison service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			quotesService,
			processService,
			filesRepo,
			importedRepo,
			mappedRowsService,
			groupsService,
			comparisonService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
