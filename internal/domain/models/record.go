package models

// RawRow is one line of tabular input keyed by header name, exactly as parsed.
// Values are not trimmed or converted.
type RawRow map[string]string

// TradingRecord represents one symbol's trading activity on one calendar date.
//
// Source column mapping (header name → field):
//
//	Date          → Date (YYYY-MM-DD)
//	Symbol        → Symbol
//	Series        → Series
//	Prev Close    → PrevClose
//	Open          → Open
//	High          → High
//	Low           → Low
//	Last          → Last
//	Close         → Close
//	VWAP          → VWAP
//	Volume        → Volume (integer)
//	Turnover      → Turnover
//	Trades        → Trades (integer)
//	Deliverable   → Deliverable (integer)
//	%Deliverable  → PercentDeliverable
//
// swagger:model TradingRecord
type TradingRecord struct {
	Date               string  `json:"date" example:"2024-01-01"`
	Symbol             string  `json:"symbol" example:"ULTRACEMCO"`
	Series             string  `json:"series" example:"EQ"`
	PrevClose          float64 `json:"prev_close"`
	Open               float64 `json:"open"`
	High               float64 `json:"high"`
	Low                float64 `json:"low"`
	Last               float64 `json:"last"`
	Close              float64 `json:"close"`
	VWAP               float64 `json:"vwap"`
	Volume             int64   `json:"volume"`
	Turnover           float64 `json:"turnover"`
	Trades             int64   `json:"trades"`
	Deliverable        int64   `json:"deliverable"`
	PercentDeliverable float64 `json:"percent_deliverable"`
}
