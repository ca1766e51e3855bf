package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pq "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/storage"
)

// fakeWriter records inserts and can reject or fail by symbol.
type fakeWriter struct {
	mu        sync.Mutex
	inserted  []models.TradingRecord
	rejectSym string
	downSym   string
	delay     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeWriter) Insert(ctx context.Context, rec models.TradingRecord) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	switch rec.Symbol {
	case f.rejectSym:
		return fmt.Errorf("insert record: %w", &pq.Error{Code: "22008"})
	case f.downSym:
		return &pq.Error{Code: "08006"}
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

// sliceSource yields rows and optionally fails before row failAt (1-based).
type sliceSource struct {
	rows   []models.RawRow
	i      int
	failAt int
}

func (s *sliceSource) Next() (models.RawRow, error) {
	if s.failAt > 0 && s.i+1 == s.failAt {
		return nil, errors.New("unexpected EOF in multipart body")
	}
	if s.i >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.i]
	s.i++
	return r, nil
}

func rowFor(symbol string, volume int) models.RawRow {
	r := validRow()
	r["Symbol"] = symbol
	r["Volume"] = fmt.Sprint(volume)
	return r
}

func TestPipeline_CountsMatchInserts(t *testing.T) {
	cases := []struct {
		name    string
		n       int
		invalid map[int]bool // 0-based indexes to corrupt
		workers int
	}{
		{name: "all valid", n: 10, workers: 1},
		{name: "some invalid sequential", n: 10, invalid: map[int]bool{0: true, 4: true, 9: true}, workers: 1},
		{name: "some invalid concurrent", n: 200, invalid: map[int]bool{3: true, 50: true, 51: true, 199: true}, workers: 8},
		{name: "all invalid", n: 5, invalid: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}, workers: 2},
		{name: "empty batch", n: 0, workers: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([]models.RawRow, tc.n)
			for i := range rows {
				rows[i] = rowFor("X", i)
				if tc.invalid[i] {
					rows[i]["Date"] = "01/01/2024"
				}
			}
			w := &fakeWriter{}

			summary, err := NewPipeline(w, tc.workers).Ingest(context.Background(), &sliceSource{rows: rows})
			require.NoError(t, err)

			k := len(tc.invalid)
			assert.Equal(t, tc.n, summary.TotalRecords)
			assert.Equal(t, tc.n-k, summary.SuccessfulRecords)
			assert.Len(t, summary.FailedRecords, k)
			assert.Equal(t, tc.n-k, w.count())
			for _, f := range summary.FailedRecords {
				assert.Equal(t, ReasonInvalidFormat, f.Reason)
				assert.True(t, tc.invalid[f.Line-1], "line %d was not corrupted", f.Line)
			}
		})
	}
}

func TestPipeline_InvalidVolumeReported(t *testing.T) {
	bad := validRow()
	bad["Volume"] = "not-a-number"

	summary, err := NewPipeline(&fakeWriter{}, 2).Ingest(context.Background(), &sliceSource{rows: []models.RawRow{validRow(), bad}})
	require.NoError(t, err)
	require.Len(t, summary.FailedRecords, 1)

	f := summary.FailedRecords[0]
	assert.Equal(t, "Invalid data format", f.Reason)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, "not-a-number", f.Row["Volume"], "failure keeps the raw row")
}

func TestPipeline_StoreRejectionIsPerRow(t *testing.T) {
	rows := []models.RawRow{rowFor("A", 1), rowFor("BAD", 2), rowFor("C", 3), rowFor("BAD", 4)}
	rows[2]["Close"] = "oops"
	w := &fakeWriter{rejectSym: "BAD", delay: time.Millisecond}

	summary, err := NewPipeline(w, 4).Ingest(context.Background(), &sliceSource{rows: rows})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalRecords)
	assert.Equal(t, 1, summary.SuccessfulRecords)
	require.Len(t, summary.FailedRecords, 3)

	lines := []int{summary.FailedRecords[0].Line, summary.FailedRecords[1].Line, summary.FailedRecords[2].Line}
	assert.Equal(t, []int{2, 3, 4}, lines, "failures are reported in source order")
	assert.Equal(t, ReasonStoreFailed, summary.FailedRecords[0].Reason)
	assert.Equal(t, ReasonInvalidFormat, summary.FailedRecords[1].Reason)
	assert.Equal(t, ReasonStoreFailed, summary.FailedRecords[2].Reason)
}

func TestPipeline_StoreUnavailableAborts(t *testing.T) {
	rows := make([]models.RawRow, 0, 50)
	for i := 0; i < 50; i++ {
		sym := "OK"
		if i == 5 {
			sym = "DOWN"
		}
		rows = append(rows, rowFor(sym, i))
	}
	w := &fakeWriter{downSym: "DOWN"}

	_, err := NewPipeline(w, 1).Ingest(context.Background(), &sliceSource{rows: rows})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Less(t, w.count(), 50)
}

func TestPipeline_AbortedSummaryCountsEveryRowRead(t *testing.T) {
	rows := make([]models.RawRow, 0, 20)
	for i := 0; i < 20; i++ {
		sym := "OK"
		if i == 5 {
			sym = "DOWN"
		}
		rows = append(rows, rowFor(sym, i))
	}
	rows[2]["Close"] = "bad"
	src := &sliceSource{rows: rows}
	w := &fakeWriter{downSym: "DOWN"}

	summary, err := NewPipeline(w, 1).Ingest(context.Background(), src)
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, src.i, summary.TotalRecords, "total covers every row read, including the aborting one")
	assert.Equal(t, w.count(), summary.SuccessfulRecords)
	require.Len(t, summary.FailedRecords, 1)
	assert.Equal(t, ReasonInvalidFormat, summary.FailedRecords[0].Reason)
	assert.Greater(t, summary.TotalRecords, summary.SuccessfulRecords+len(summary.FailedRecords))
}

func TestPipeline_SourceErrorAborts(t *testing.T) {
	rows := []models.RawRow{rowFor("A", 1), rowFor("B", 2), rowFor("C", 3)}
	w := &fakeWriter{}

	summary, err := NewPipeline(w, 1).Ingest(context.Background(), &sliceSource{rows: rows, failAt: 3})
	require.Error(t, err)

	var sre *SourceReadError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, 3, sre.Line)
	assert.NotErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, 2, w.count(), "rows before the break stay written")
	assert.Equal(t, 2, summary.SuccessfulRecords)
}

func TestPipeline_BoundsInFlightWrites(t *testing.T) {
	rows := make([]models.RawRow, 40)
	for i := range rows {
		rows[i] = rowFor("X", i)
	}
	w := &fakeWriter{delay: 2 * time.Millisecond}

	summary, err := NewPipeline(w, 3).Ingest(context.Background(), &sliceSource{rows: rows})
	require.NoError(t, err)
	assert.Equal(t, 40, summary.SuccessfulRecords)
	assert.LessOrEqual(t, w.maxInFlight.Load(), int32(3))
	assert.Equal(t, int32(0), w.inFlight.Load(), "all writes joined before returning")
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&fakeWriter{}, 2).Ingest(ctx, &sliceSource{rows: []models.RawRow{validRow()}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPipeline_DefaultWorkers(t *testing.T) {
	assert.Equal(t, DefaultWorkers, NewPipeline(&fakeWriter{}, 0).workers)
}

func TestPipeline_CSVIntoMemoryStore(t *testing.T) {
	content := header +
		"2024-01-01,X,EQ,10.0,305.0,340.0,253.25,259.0,260.0,268.8,100,1.78E14,133456,970249,0.1463\n" +
		"2024-01-02,X,EQ,10.0,305.0,340.0,253.25,259.0,270.0,270.0,500,1.78E14,133456,970249,0.1463\n" +
		"2024-01-01,Y,EQ,10.0,305.0,340.0,253.25,259.0,10.0,10.0,900,1.78E14,133456,970249,0.1463\n" +
		"2024-02-30,Z,EQ,10.0,305.0,340.0,253.25,259.0,10.0,10.0,900,1.78E14,133456,970249,0.1463\n" +
		"2024-01-03,Z,EQ,10.0abc,305.0,340.0,253.25,259.0,10.0,10.0,900,1.78E14,133456,970249,0.1463\n"

	src, err := NewCSVSource(strings.NewReader(content))
	require.NoError(t, err)
	store := storage.NewMemoryStore()

	summary, err := NewPipeline(store, 2).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalRecords)
	assert.Equal(t, 3, summary.SuccessfulRecords)
	require.Len(t, summary.FailedRecords, 2)
	assert.Equal(t, ReasonStoreFailed, summary.FailedRecords[0].Reason, "impossible calendar day is rejected by the store")
	assert.Equal(t, ReasonInvalidFormat, summary.FailedRecords[1].Reason)
	assert.Equal(t, 3, store.Len())
}
