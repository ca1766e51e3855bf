package models

import "time"

// FailureRecord pairs a rejected row with the reason it was rejected.
// Line is the 1-based data row number (the header is not counted).
type FailureRecord struct {
	Line   int    `json:"line" example:"3"`
	Row    RawRow `json:"row"`
	Reason string `json:"reason" example:"Invalid data format"`
}

// IngestionSummary is the outcome of one ingestion call.
//
// Invariant: TotalRecords == SuccessfulRecords + len(FailedRecords).
type IngestionSummary struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     []FailureRecord
}

// IngestionLogEntry is the persisted audit line written after each batch.
type IngestionLogEntry struct {
	Source            string
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	IngestedAt        time.Time
}
