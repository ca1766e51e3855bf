package ingestion

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// decimalPattern is plain decimal notation with an optional exponent.
	// Hex floats and digit separators never match.
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Source header names.
const (
	colDate               = "Date"
	colSymbol             = "Symbol"
	colSeries             = "Series"
	colPrevClose          = "Prev Close"
	colOpen               = "Open"
	colHigh               = "High"
	colLow                = "Low"
	colLast               = "Last"
	colClose              = "Close"
	colVWAP               = "VWAP"
	colVolume             = "Volume"
	colTurnover           = "Turnover"
	colTrades             = "Trades"
	colDeliverable        = "Deliverable"
	colPercentDeliverable = "%Deliverable"
)

// floatColumns and integerColumns together are the twelve numeric columns a row must carry.
var (
	floatColumns   = []string{colPrevClose, colOpen, colHigh, colLow, colLast, colClose, colVWAP, colTurnover, colPercentDeliverable}
	integerColumns = []string{colVolume, colTrades, colDeliverable}
)

// Validate reports whether row is well-formed enough to store.
//
// Date must match YYYY-MM-DD exactly. Every numeric column must be present
// and parse in full (surrounding whitespace allowed, trailing garbage not);
// NaN and infinities are rejected; Volume, Trades and Deliverable must be
// whole numbers that fit in an int64. Symbol and Series are free-form.
func Validate(row models.RawRow) bool {
	if !datePattern.MatchString(row[colDate]) {
		return false
	}
	for _, col := range floatColumns {
		v, ok := row[col]
		if !ok {
			return false
		}
		if _, ok := parseFloat(v); !ok {
			return false
		}
	}
	for _, col := range integerColumns {
		v, ok := row[col]
		if !ok {
			return false
		}
		if _, ok := parseWhole(v); !ok {
			return false
		}
	}
	return true
}

// parseFloat is a full-string decimal parse that refuses non-finite values.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseWhole accepts base-10 integers and float spellings of whole numbers ("1e6", "42.0").
func parseWhole(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	v, ok := parseFloat(s)
	if !ok || v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}
