package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "oops"}
	if e.Error() != "oops" {
		t.Fatalf("want 'oops' got %q", e.Error())
	}
	e2 := ErrorResponse{Message: "oops", ErrorDetails: "bad"}
	if e2.Error() != "oops: bad" {
		t.Fatalf("want 'oops: bad' got %q", e2.Error())
	}
	e3 := ErrorResponse{ErrorDetails: "bad"}
	if e3.Error() != "bad" {
		t.Fatalf("want 'bad' got %q", e3.Error())
	}
}

func TestNewErrorResponse(t *testing.T) {
	e := NewErrorResponse("msg", nil)
	if e.Message != "msg" || e.ErrorDetails != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	e2 := NewErrorResponse("msg", errors.New("boom"))
	if e2.ErrorDetails != "boom" || e2.Message != "msg" {
		t.Fatalf("unexpected %+v", e2)
	}
}

func TestNewInternalError_JSONShape(t *testing.T) {
	b, err := json.Marshal(NewInternalError("Failed to process CSV file."))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["error"] != "Failed to process CSV file." {
		t.Fatalf("unexpected error field: %v", out["error"])
	}
	if _, ok := out["message"]; ok {
		t.Fatalf("message must be omitted for internal errors")
	}
}

func TestNewUploadResponse(t *testing.T) {
	empty := NewUploadResponse(models.IngestionSummary{TotalRecords: 2, SuccessfulRecords: 2})
	if empty.FailedRecordsDetails == nil || empty.FailedRecords != 0 {
		t.Fatalf("details must be an empty slice: %+v", empty)
	}

	resp := NewUploadResponse(models.IngestionSummary{
		TotalRecords:      3,
		SuccessfulRecords: 2,
		FailedRecords:     []models.FailureRecord{{Line: 2, Row: models.RawRow{"Date": "x"}, Reason: "Invalid data format"}},
	})
	if resp.TotalRecords != 3 || resp.SuccessfulRecords != 2 || resp.FailedRecords != 1 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
}
