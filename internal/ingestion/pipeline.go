package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/metrics"
	"github.com/guttosm/stockpulse/internal/storage"
)

// Failure reasons reported per rejected row.
const (
	ReasonInvalidFormat = "Invalid data format"
	ReasonStoreFailed   = "Failed to store record"
)

// DefaultWorkers bounds in-flight store writes when NewPipeline receives a non-positive value.
const DefaultWorkers = 4

// Pipeline streams a Source through Validate → Normalize → store.
//
// Rows are read and validated in arrival order on the caller's goroutine.
// Accepted records are written by at most `workers` concurrent inserts, and
// every write is joined before the summary is produced. Outcomes are folded
// by a single accumulator goroutine.
type Pipeline struct {
	store   storage.RecordWriter
	workers int
	log     zerolog.Logger
}

// NewPipeline builds a Pipeline writing to store.
func NewPipeline(store storage.RecordWriter, workers int) *Pipeline {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pipeline{store: store, workers: workers, log: logger.Component("ingestion")}
}

// outcome is the result of one row. An empty reason means the record was stored
// unless aborted is set, in which case the row was read but its write never landed.
type outcome struct {
	line    int
	row     models.RawRow
	reason  string
	aborted bool
}

// tally folds outcomes into a summary. It is owned by one goroutine.
type tally struct {
	total  int
	stored int
	failed []models.FailureRecord
}

func (t *tally) add(o outcome) {
	t.total++
	if o.aborted {
		return
	}
	if o.reason == "" {
		t.stored++
		metrics.IngestedRows.WithLabelValues(metrics.RowStored).Inc()
		return
	}
	t.failed = append(t.failed, models.FailureRecord{Line: o.line, Row: o.row, Reason: o.reason})
	if o.reason == ReasonInvalidFormat {
		metrics.IngestedRows.WithLabelValues(metrics.RowInvalid).Inc()
	} else {
		metrics.IngestedRows.WithLabelValues(metrics.RowStoreFailed).Inc()
	}
}

// summary returns failures in source order; concurrent writes may report out of order.
func (t *tally) summary() models.IngestionSummary {
	sort.SliceStable(t.failed, func(i, j int) bool { return t.failed[i].Line < t.failed[j].Line })
	return models.IngestionSummary{
		TotalRecords:      t.total,
		SuccessfulRecords: t.stored,
		FailedRecords:     t.failed,
	}
}

// Ingest consumes src until io.EOF and returns the summary.
//
// Errors:
//   - *SourceReadError when src breaks mid-stream; remaining rows are not read.
//   - an error wrapping storage.ErrUnavailable when the store cannot be reached.
//   - ctx.Err() when the caller gives up.
//
// Rows already written are never rolled back. On error the returned summary
// covers the rows processed so far.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (models.IngestionSummary, error) {
	start := time.Now()
	p.log.Info().Int("workers", p.workers).Msg("ingestion start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	outcomes := make(chan outcome, p.workers)
	folded := make(chan models.IngestionSummary, 1)
	go func() {
		var t tally
		for o := range outcomes {
			t.add(o)
		}
		folded <- t.summary()
	}()

	readErr := p.feed(gctx, g, src, outcomes)
	writeErr := g.Wait()
	close(outcomes)
	summary := <-folded

	elapsed := time.Since(start)
	switch {
	case ctx.Err() != nil:
		metrics.Ingestions.WithLabelValues(metrics.BatchCancelled).Inc()
		p.log.Warn().Err(ctx.Err()).Int("total", summary.TotalRecords).Dur("elapsed", elapsed).Msg("ingestion cancelled")
		return summary, ctx.Err()
	case writeErr != nil:
		metrics.Ingestions.WithLabelValues(metrics.BatchStoreError).Inc()
		p.log.Error().Err(writeErr).Int("total", summary.TotalRecords).Dur("elapsed", elapsed).Msg("ingestion aborted: store unavailable")
		return summary, writeErr
	case readErr != nil:
		metrics.Ingestions.WithLabelValues(metrics.BatchSourceError).Inc()
		p.log.Error().Err(readErr).Int("total", summary.TotalRecords).Dur("elapsed", elapsed).Msg("ingestion aborted: source error")
		return summary, readErr
	}

	metrics.Ingestions.WithLabelValues(metrics.BatchOK).Inc()
	p.log.Info().
		Int("total", summary.TotalRecords).
		Int("successful", summary.SuccessfulRecords).
		Int("failed", len(summary.FailedRecords)).
		Dur("elapsed", elapsed).
		Msg("ingestion done")
	return summary, nil
}

// feed reads src in order, reports invalid rows directly and hands valid
// records to the worker group. g.Go blocks while `workers` writes are in flight.
func (p *Pipeline) feed(ctx context.Context, g *errgroup.Group, src Source, out chan<- outcome) error {
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var sre *SourceReadError
			if !errors.As(err, &sre) {
				err = &SourceReadError{Line: line, Err: err}
			}
			return err
		}

		if !Validate(row) {
			p.log.Debug().Int("line", line).Msg("row rejected: invalid format")
			out <- outcome{line: line, row: row, reason: ReasonInvalidFormat}
			continue
		}

		n, raw, rec := line, row, Normalize(row)
		g.Go(func() error {
			return p.write(ctx, n, raw, rec, out)
		})
	}
}

// write stores one record. A rejected statement becomes a per-row failure;
// an unreachable store aborts the whole group.
func (p *Pipeline) write(ctx context.Context, line int, row models.RawRow, rec models.TradingRecord, out chan<- outcome) error {
	err := p.store.Insert(ctx, rec)
	if err == nil {
		out <- outcome{line: line}
		return nil
	}
	if storage.IsUnavailable(err) {
		out <- outcome{line: line, aborted: true}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, storage.ErrUnavailable) {
			return fmt.Errorf("row %d: %w", line, err)
		}
		return fmt.Errorf("row %d: %w: %v", line, storage.ErrUnavailable, err)
	}
	p.log.Warn().Err(err).Int("line", line).Str("symbol", rec.Symbol).Str("date", rec.Date).Msg("row rejected by store")
	out <- outcome{line: line, row: row, reason: ReasonStoreFailed}
	return nil
}
