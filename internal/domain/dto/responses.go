package dto

import "github.com/guttosm/stockpulse/internal/domain/models"

// RangeQuery holds the query-string parameters shared by the aggregate endpoints.
//
// Presence and layout are enforced by gin binding; range ordering is checked
// by the service layer.
type RangeQuery struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02" example:"2024-01-01"`
	EndDate   string `form:"end_date" binding:"required,datetime=2006-01-02" example:"2024-01-31"`
	Symbol    string `form:"symbol" example:"ULTRACEMCO"`
}

// UploadResponse is returned by POST /stock/upload.
type UploadResponse struct {
	TotalRecords         int                    `json:"total_records" example:"3"`
	SuccessfulRecords    int                    `json:"successful_records" example:"2"`
	FailedRecords        int                    `json:"failed_records" example:"1"`
	FailedRecordsDetails []models.FailureRecord `json:"failed_records_details"`
}

// NewUploadResponse maps an ingestion summary to the API contract.
// FailedRecordsDetails is never null in the JSON body.
func NewUploadResponse(s models.IngestionSummary) UploadResponse {
	details := s.FailedRecords
	if details == nil {
		details = []models.FailureRecord{}
	}
	return UploadResponse{
		TotalRecords:         s.TotalRecords,
		SuccessfulRecords:    s.SuccessfulRecords,
		FailedRecords:        len(details),
		FailedRecordsDetails: details,
	}
}

// VolumeRecord is the projection of a TradingRecord exposed by the highest-volume endpoint.
type VolumeRecord struct {
	Date   string `json:"date" example:"2024-01-02"`
	Symbol string `json:"symbol" example:"ULTRACEMCO"`
	Volume int64  `json:"volume" example:"6633956"`
}

// HighestVolumeResponse is returned by GET /stock/highest-volume.
type HighestVolumeResponse struct {
	HighestVolume VolumeRecord `json:"highest_volume"`
}

// AverageCloseResponse is returned by GET /stock/average-close.
type AverageCloseResponse struct {
	AverageClose float64 `json:"average_close" example:"260.5"`
}

// AverageVWAPResponse is returned by GET /stock/average-vwap.
type AverageVWAPResponse struct {
	AverageVWAP float64 `json:"average_vwap" example:"268.8"`
}
