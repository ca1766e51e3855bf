package models

import "time"

// DateLayout is the only accepted calendar date representation.
const DateLayout = "2006-01-02"

// AggregateQuery selects records with Start <= date <= End and, when Symbol
// is non-empty, an exact (case-sensitive) symbol match.
type AggregateQuery struct {
	Start  time.Time
	End    time.Time
	Symbol string
}

// Matches reports whether a record falls inside the query filter.
// Record dates that are not YYYY-MM-DD never match.
func (q AggregateQuery) Matches(r TradingRecord) bool {
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return false
	}
	if d.Before(q.Start) || d.After(q.End) {
		return false
	}
	return q.Symbol == "" || r.Symbol == q.Symbol
}

// AverageField names a column that can be averaged.
type AverageField string

const (
	FieldClose AverageField = "close"
	FieldVWAP  AverageField = "vwap"
)

// Valid reports whether f is one of the supported average fields.
func (f AverageField) Valid() bool {
	return f == FieldClose || f == FieldVWAP
}

// Of returns the value of field f on r.
func (f AverageField) Of(r TradingRecord) float64 {
	if f == FieldVWAP {
		return r.VWAP
	}
	return r.Close
}
