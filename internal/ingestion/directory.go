package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/storage"
)

const fileGlob = "*.csv"

// maxParallelFiles caps how many files ProcessDirectory ingests at once.
const maxParallelFiles = 8

// Audit records a finished batch in the ingestion log. Failures are logged, not returned.
func Audit(ctx context.Context, store storage.IngestionLogger, source string, s models.IngestionSummary) {
	err := store.LogIngestion(ctx, models.IngestionLogEntry{
		Source:            source,
		TotalRecords:      s.TotalRecords,
		SuccessfulRecords: s.SuccessfulRecords,
		FailedRecords:     len(s.FailedRecords),
		IngestedAt:        time.Now().UTC(),
	})
	if err != nil {
		logger.L().Warn().Err(err).Str("source", source).Msg("ingestion log write failed")
	}
}

// IngestFile runs one file through the pipeline and audits the result.
func IngestFile(ctx context.Context, path string, p *Pipeline, store storage.IngestionLogger) (models.IngestionSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.IngestionSummary{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := NewCSVSource(f)
	if err != nil {
		return models.IngestionSummary{}, err
	}
	summary, err := p.Ingest(ctx, src)
	if err != nil {
		return summary, err
	}
	Audit(ctx, store, filepath.Base(path), summary)
	return summary, nil
}

// ProcessDirectory ingests every *.csv file in dir.
//
// Behavior:
//   - Files are processed in name order, up to `parallel` at a time
//     (0 = min(NumCPU, 8)); each file gets its own pipeline call with `workers` writers.
//   - Row-level failures are logged per file and do not fail the run.
//   - The first source or store error cancels the remaining files and is returned.
func ProcessDirectory(ctx context.Context, dir string, store storage.RecordStore, workers, parallel int) error {
	files, err := filepath.Glob(filepath.Join(dir, fileGlob))
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", fileGlob, dir)
	}
	sort.Strings(files)

	maxParallel := maxParallelFiles
	if parallel > 0 {
		if parallel < maxParallel {
			maxParallel = parallel
		}
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	log := logger.Component("ingestion")
	log.Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", maxParallel).Msg("directory ingestion start")

	pipeline := NewPipeline(store, workers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, file := range files {
		idx := i
		f := file
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(f)
			log.Info().Int("idx", idx+1).Int("total", len(files)).Str("file", base).Msg("file start")

			summary, err := IngestFile(gctx, f, pipeline, store)
			if err != nil {
				log.Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", f, err)
			}
			for _, fr := range summary.FailedRecords {
				log.Warn().Str("file", base).Int("line", fr.Line).Str("reason", fr.Reason).Msg("row rejected")
			}
			log.Info().
				Int("idx", idx+1).
				Int("total", len(files)).
				Str("file", base).
				Int("rows", summary.TotalRecords).
				Int("stored", summary.SuccessfulRecords).
				Int("failed", len(summary.FailedRecords)).
				Dur("elapsed", time.Since(start)).
				Msg("file done")
			return nil
		})
	}

	return g.Wait()
}
