package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

const recordColumns = `date, symbol, series, prev_close, open, high, low, last, close, vwap,
	volume, turnover, trades, deliverable, percent_deliverable`

// averageColumns whitelists the columns that may be interpolated into AVG().
var averageColumns = map[models.AverageField]string{
	models.FieldClose: "close",
	models.FieldVWAP:  "vwap",
}

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a RecordStore backed by the trading_records table.
func NewPostgresStore(db *sql.DB) RecordStore {
	return &postgresStore{db: db}
}

// Insert writes one record. Dates that match YYYY-MM-DD but are not real
// calendar days are rejected by PostgreSQL (SQLSTATE 22008) as a per-row failure.
func (s *postgresStore) Insert(ctx context.Context, rec models.TradingRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trading_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.Date,
		rec.Symbol,
		rec.Series,
		rec.PrevClose,
		rec.Open,
		rec.High,
		rec.Low,
		rec.Last,
		rec.Close,
		rec.VWAP,
		rec.Volume,
		rec.Turnover,
		rec.Trades,
		rec.Deliverable,
		rec.PercentDeliverable,
	)
	if err != nil {
		if IsUnavailable(err) {
			return unavailable("insert record", err)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// whereClause builds the shared range+symbol filter.
// $1 and $2 are always the inclusive date bounds; $3 is the symbol when given.
func whereClause(q models.AggregateQuery) (string, []interface{}) {
	conditions := "date >= $1 AND date <= $2"
	args := []interface{}{q.Start.Format(models.DateLayout), q.End.Format(models.DateLayout)}
	if q.Symbol != "" {
		placeholder := len(args) + 1
		conditions += fmt.Sprintf(" AND symbol = $%d", placeholder)
		args = append(args, q.Symbol)
	}
	return conditions, args
}

// FindTopByVolume returns the matching record with the largest volume.
// Ties resolve to the earliest date, then to the first inserted row.
func (s *postgresStore) FindTopByVolume(ctx context.Context, q models.AggregateQuery) (*models.TradingRecord, error) {
	conditions, args := whereClause(q)
	query := fmt.Sprintf(`
		SELECT %s
		FROM trading_records
		WHERE %s
		ORDER BY volume DESC, date ASC, id ASC
		LIMIT 1`, recordColumns, conditions)

	var (
		rec  models.TradingRecord
		date time.Time
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&date,
		&rec.Symbol,
		&rec.Series,
		&rec.PrevClose,
		&rec.Open,
		&rec.High,
		&rec.Low,
		&rec.Last,
		&rec.Close,
		&rec.VWAP,
		&rec.Volume,
		&rec.Turnover,
		&rec.Trades,
		&rec.Deliverable,
		&rec.PercentDeliverable,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find top by volume: %w", err)
	}
	rec.Date = date.Format(models.DateLayout)
	return &rec, nil
}

// Average computes AVG(field) over the matching rows.
// AVG over zero rows is NULL, reported as ok=false.
func (s *postgresStore) Average(ctx context.Context, field models.AverageField, q models.AggregateQuery) (float64, bool, error) {
	column, ok := averageColumns[field]
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrUnsupportedField, field)
	}
	conditions, args := whereClause(q)
	query := fmt.Sprintf(`SELECT AVG(%s) FROM trading_records WHERE %s`, column, conditions)

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("average %s: %w", column, err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// LogIngestion appends an audit entry to ingestion_log.
func (s *postgresStore) LogIngestion(ctx context.Context, e models.IngestionLogEntry) error {
	ingestedAt := e.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_log (source, total_records, successful_records, failed_records, ingested_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.Source, e.TotalRecords, e.SuccessfulRecords, e.FailedRecords, ingestedAt)
	if err != nil {
		return fmt.Errorf("log ingestion: %w", err)
	}
	return nil
}

// Ping verifies connectivity.
func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
