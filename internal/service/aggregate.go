package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/metrics"
	"github.com/guttosm/stockpulse/internal/storage"
)

var (
	// ErrInvalidQuery marks caller errors in the date range.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound means no record matched the filter.
	ErrNotFound = errors.New("no records found")
)

// AggregationService answers the analytical queries over stored records.
type AggregationService interface {
	HighestVolume(ctx context.Context, q models.AggregateQuery) (*models.TradingRecord, error)
	AverageClose(ctx context.Context, q models.AggregateQuery) (float64, error)
	AverageVWAP(ctx context.Context, q models.AggregateQuery) (float64, error)
}

// NewAggregateQuery parses YYYY-MM-DD bounds into a query.
// Both bounds are required and start must not be after end. symbol is used verbatim.
func NewAggregateQuery(startDate, endDate, symbol string) (models.AggregateQuery, error) {
	if startDate == "" || endDate == "" {
		return models.AggregateQuery{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidQuery)
	}
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return models.AggregateQuery{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidQuery)
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return models.AggregateQuery{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidQuery)
	}
	q := models.AggregateQuery{Start: start, End: end, Symbol: symbol}
	if err := check(q); err != nil {
		return models.AggregateQuery{}, err
	}
	return q, nil
}

// check rejects reversed ranges. 0001-01-01 is a valid bound, so zero times are not special.
func check(q models.AggregateQuery) error {
	if q.Start.After(q.End) {
		return fmt.Errorf("%w: start_date must not be after end_date", ErrInvalidQuery)
	}
	return nil
}

type aggregationService struct {
	store storage.RecordStore
}

// NewAggregationService returns the AggregationService backed by store.
func NewAggregationService(store storage.RecordStore) AggregationService {
	return &aggregationService{store: store}
}

func (s *aggregationService) HighestVolume(ctx context.Context, q models.AggregateQuery) (*models.TradingRecord, error) {
	const kind = "highest_volume"
	if err := check(q); err != nil {
		observe(kind, err)
		return nil, err
	}
	rec, err := s.store.FindTopByVolume(ctx, q)
	if err == nil && rec == nil {
		err = ErrNotFound
	}
	observe(kind, err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *aggregationService) AverageClose(ctx context.Context, q models.AggregateQuery) (float64, error) {
	return s.average(ctx, "average_close", models.FieldClose, q)
}

func (s *aggregationService) AverageVWAP(ctx context.Context, q models.AggregateQuery) (float64, error) {
	return s.average(ctx, "average_vwap", models.FieldVWAP, q)
}

// average never reports 0 or NaN for an empty match; it returns ErrNotFound instead.
func (s *aggregationService) average(ctx context.Context, kind string, field models.AverageField, q models.AggregateQuery) (float64, error) {
	if err := check(q); err != nil {
		observe(kind, err)
		return 0, err
	}
	avg, ok, err := s.store.Average(ctx, field, q)
	if err == nil && !ok {
		err = ErrNotFound
	}
	observe(kind, err)
	if err != nil {
		return 0, err
	}
	return avg, nil
}

func observe(kind string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidQuery):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.AggregateQueries.WithLabelValues(kind, result).Inc()
}
