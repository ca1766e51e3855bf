package app

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/guttosm/stockpulse/db/migrations"
	"github.com/guttosm/stockpulse/internal/logger"
)

// migrator is swapped in tests; goose keeps its settings in package state.
var migrator = func(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

// Migrate applies every pending embedded migration.
func Migrate(db *sql.DB) error {
	if err := migrator(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log := logger.Component("migrate")
	log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log := logger.Component("migrate")
	log.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
