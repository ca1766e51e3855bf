package app

import (
	"database/sql"
	"fmt"

	"github.com/guttosm/stockpulse/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// Pool sizing for the record store. Ingestion writes run with up to
// INGEST_WORKERS concurrent inserts per batch, so the pool must cover that.
const (
	minOpenConns = 10
	maxIdleConns = 5
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres initializes a PostgreSQL connection using the provided configuration.
//
// Behavior:
//   - Uses cfg.Postgres.ConnString(): DATABASE_URL when set, else the composed DSN.
//   - Opens a database handle with sql.Open and sizes the pool for the ingestion workers.
//   - Immediately pings the database to validate connectivity.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
//
// Example usage:
//
//	db, err := app.InitPostgres(config.AppConfig)
//	if err != nil {
//	    logger.L().Fatal().Err(err).Msg("db connect error")
//	}
//	defer db.Close()
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	// Initialize database handle (does not establish a real connection yet)
	db, err := sqlOpener("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	maxOpen := minOpenConns
	if w := cfg.Ingestion.Workers * 2; w > maxOpen {
		maxOpen = w
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdleConns)

	// Verify connectivity by pinging the database
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// postgresOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
