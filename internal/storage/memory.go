package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// MemoryStore is a process-local RecordStore. It keeps records in insertion
// order and applies the same filter, ordering and tie-break as the SQL store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.TradingRecord
	log     []models.IngestionLogEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert rejects dates that are not real calendar days, mirroring the DATE column.
func (m *MemoryStore) Insert(ctx context.Context, rec models.TradingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := time.Parse(models.DateLayout, rec.Date); err != nil {
		return fmt.Errorf("insert record: invalid date %q: %w", rec.Date, err)
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

// FindTopByVolume scans in insertion order and only replaces the current
// best on a strictly larger volume or an equal volume on an earlier date.
func (m *MemoryStore) FindTopByVolume(ctx context.Context, q models.AggregateQuery) (*models.TradingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *models.TradingRecord
	for i := range m.records {
		r := &m.records[i]
		if !q.Matches(*r) {
			continue
		}
		if best == nil || r.Volume > best.Volume || (r.Volume == best.Volume && r.Date < best.Date) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

// Average returns the arithmetic mean of field over the matching records.
func (m *MemoryStore) Average(ctx context.Context, field models.AverageField, q models.AggregateQuery) (float64, bool, error) {
	if !field.Valid() {
		return 0, false, fmt.Errorf("%w: %q", ErrUnsupportedField, field)
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		sum float64
		n   int
	)
	for _, r := range m.records {
		if q.Matches(r) {
			sum += field.Of(r)
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// LogIngestion keeps the entry in memory.
func (m *MemoryStore) LogIngestion(_ context.Context, e models.IngestionLogEntry) error {
	if e.IngestedAt.IsZero() {
		e.IngestedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.log = append(m.log, e)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// IngestionLog returns a copy of the recorded audit entries.
func (m *MemoryStore) IngestionLog() []models.IngestionLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.IngestionLogEntry(nil), m.log...)
}

var _ RecordStore = (*MemoryStore)(nil)
