package storage

import (
	"context"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// RecordWriter persists a single normalized record.
type RecordWriter interface {
	Insert(ctx context.Context, rec models.TradingRecord) error
}

// IngestionLogger records one audit line per ingested batch.
type IngestionLogger interface {
	LogIngestion(ctx context.Context, entry models.IngestionLogEntry) error
}

// RecordStore is the full contract the service layers depend on.
//
// Query semantics shared by every implementation:
//   - a record matches iff q.Start <= date <= q.End and, when q.Symbol is set, symbol == q.Symbol;
//   - FindTopByVolume orders by volume DESC, date ASC, insertion order ASC and returns nil when nothing matches;
//   - Average returns ok=false when nothing matches.
type RecordStore interface {
	RecordWriter
	IngestionLogger
	FindTopByVolume(ctx context.Context, q models.AggregateQuery) (*models.TradingRecord, error)
	Average(ctx context.Context, field models.AverageField, q models.AggregateQuery) (avg float64, ok bool, err error)
	Ping(ctx context.Context) error
}
