package ingestion

import "github.com/guttosm/stockpulse/internal/domain/models"

// Normalize converts a row that already passed Validate into a TradingRecord.
// String columns are copied verbatim. Calling it on a row Validate rejects
// yields zero values for the unparseable columns.
func Normalize(row models.RawRow) models.TradingRecord {
	return models.TradingRecord{
		Date:               row[colDate],
		Symbol:             row[colSymbol],
		Series:             row[colSeries],
		PrevClose:          toFloat(row[colPrevClose]),
		Open:               toFloat(row[colOpen]),
		High:               toFloat(row[colHigh]),
		Low:                toFloat(row[colLow]),
		Last:               toFloat(row[colLast]),
		Close:              toFloat(row[colClose]),
		VWAP:               toFloat(row[colVWAP]),
		Volume:             toWhole(row[colVolume]),
		Turnover:           toFloat(row[colTurnover]),
		Trades:             toWhole(row[colTrades]),
		Deliverable:        toWhole(row[colDeliverable]),
		PercentDeliverable: toFloat(row[colPercentDeliverable]),
	}
}

func toFloat(s string) float64 {
	v, _ := parseFloat(s)
	return v
}

func toWhole(s string) int64 {
	v, _ := parseWhole(s)
	return v
}
