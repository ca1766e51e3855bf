package main

//
//  @title           stockpulse API
//  @version         1.0
//  @description     Daily stock record ingestion & aggregation service.
//  @termsOfService  https://github.com/guttosm/stockpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/stockpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        stock
//  @tag.description CSV upload and aggregate queries over daily records
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/stockpulse/config"
	_ "github.com/guttosm/stockpulse/docs" // swagger docs
	"github.com/guttosm/stockpulse/internal/app"
	"github.com/guttosm/stockpulse/internal/ingestion"
	"github.com/guttosm/stockpulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//   - cfg (config.ServerConfig): Read/write deadlines; uploads must fit in ReadTimeout.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string, cfg config.ServerConfig) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runIngest loads every *.csv file under dir into the configured store.
func runIngest(ctx context.Context, cfg config.Config, dir string, parallel int) error {
	store, cleanup, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return ingestion.ProcessDirectory(ctx, dir, store, cfg.Ingestion.Workers, parallel)
}

// runMigrate applies the embedded schema migrations to PostgreSQL.
func runMigrate(cfg config.Config) error {
	db, err := app.InitPostgres(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return app.Migrate(db)
}

// main is the entry point of the stockpulse application.
//
// Modes (selected via --mode flag):
//   - api:     Starts the REST API (upload + aggregate queries).
//   - ingest:  Loads every .csv file from --dir through the ingestion pipeline.
//   - migrate: Applies database migrations and exits.
//
// Flags:
//   - --mode:     Execution mode ("api", "ingest" or "migrate"). Default: "api".
//   - --dir:      Directory containing .csv input files. Default: "./data/input".
//   - --parallel: Files ingested concurrently (0 = auto, up to CPU count, max 8).
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "api", "Mode: api, ingest or migrate")
	dir := flag.String("dir", "./data/input", "Directory with .csv files")
	parallel := flag.Int("parallel", 0, "How many files to process concurrently (0=auto up to CPU, max 8)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	cfg := config.AppConfig

	switch *mode {
	case "ingest":
		logger.L().Info().Str("dir", *dir).Msg("running ingestion")

		// Interrupt cancels in-flight files; rows already written stay.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runIngest(ctx, cfg, *dir, *parallel); err != nil {
			logger.L().Fatal().Err(err).Msg("ingestion failed")
		}
		logger.L().Info().Msg("ingestion completed successfully")

	case "migrate":
		if err := runMigrate(cfg); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}
		logger.L().Info().Msg("migrations applied")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port, cfg.Server)
		gracefulShutdown(context.Background(), server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
