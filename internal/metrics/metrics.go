// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes.
const (
	RowStored      = "stored"
	RowInvalid     = "invalid"
	RowStoreFailed = "store_failed"
)

// Batch outcomes.
const (
	BatchOK          = "ok"
	BatchSourceError = "source_error"
	BatchStoreError  = "store_error"
	BatchCancelled   = "cancelled"
)

var (
	// IngestedRows counts rows by outcome.
	IngestedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockpulse",
		Name:      "ingested_rows_total",
		Help:      "Rows read from batch sources, by outcome.",
	}, []string{"outcome"})

	// Ingestions counts ingestion calls by final status.
	Ingestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockpulse",
		Name:      "ingestions_total",
		Help:      "Ingestion calls, by final status.",
	}, []string{"status"})

	// AggregateQueries counts aggregate queries by kind and result (ok|not_found|invalid|error).
	AggregateQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockpulse",
		Name:      "aggregate_queries_total",
		Help:      "Aggregate queries, by kind and result.",
	}, []string{"query", "result"})

	// HTTPDuration observes request latency per route template.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockpulse",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
