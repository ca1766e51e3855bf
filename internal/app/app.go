package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/api"
	"github.com/guttosm/stockpulse/internal/ingestion"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/service"
	"github.com/guttosm/stockpulse/internal/storage"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OpenStore builds the RecordStore selected by cfg.Storage.Driver and returns
// a cleanup function releasing it.
//
// Behavior:
//   - "postgres": connects through postgresOpener and, when POSTGRES_AUTO_MIGRATE
//     is set, applies the embedded migrations before returning.
//   - "memory": a process-local store; nothing survives a restart.
func OpenStore(cfg config.Config) (storage.RecordStore, func(), error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		logger.L().Warn().Msg("using in-memory record store; data is not persisted")
		return storage.NewMemoryStore(), func() {}, nil

	case DriverPostgres:
		// indirection for unit testing
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := Migrate(db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return storage.NewPostgresStore(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the record store selected in config.
//   - Builds the ingestion pipeline and the aggregation service on top of it.
//   - Creates the HTTP handler layer and the Gin router.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	store, closeStore, err := OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := ingestion.NewPipeline(store, cfg.Ingestion.Workers)
	svc := service.NewAggregationService(store)
	handler := api.NewHandler(svc, pipeline, store)

	router := api.NewRouter(handler, api.RouterConfig{
		RequestTimeout:     cfg.Server.RequestTimeout,
		UploadTimeout:      cfg.Server.UploadTimeout,
		MaxMultipartMemory: cfg.Ingestion.MaxMultipartMemory,
		RateLimitRPS:       cfg.Server.RateLimitRPS,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	})

	// Register health and readiness probes
	api.NewHealthHandler(func(ctx context.Context) error { return store.Ping(ctx) }).Register(router)

	return router, closeStore, nil
}
