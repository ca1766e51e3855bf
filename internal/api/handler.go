package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/ingestion"
	"github.com/guttosm/stockpulse/internal/middleware"
	"github.com/guttosm/stockpulse/internal/service"
	"github.com/guttosm/stockpulse/internal/storage"
)

// Messages returned to clients. 5xx bodies never carry internal detail.
const (
	msgNoFile        = "No file uploaded."
	msgReadFailed    = "Failed to process CSV file."
	msgProcessFailed = "An error occurred during file processing."
	msgNotFound      = "No records found for the given parameters."
	msgQueryFailed   = "An error occurred while retrieving data."
	msgInvalidRange  = "start_date and end_date are required in YYYY-MM-DD format."
	uploadFormField  = "file"
)

// Ingester runs a batch source through validation, normalization and storage.
type Ingester interface {
	Ingest(ctx context.Context, src ingestion.Source) (models.IngestionSummary, error)
}

// Handler provides HTTP handlers for upload and aggregate endpoints.
//
// Responsibilities:
//   - Validate incoming query parameters and uploads
//   - Delegate ingestion to the pipeline and queries to the aggregation service
//   - Translate results into response DTOs with appropriate HTTP status codes
type Handler struct {
	svc      service.AggregationService
	ingester Ingester
	audit    storage.IngestionLogger
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc: aggregation queries.
//   - ingester: upload pipeline (usually *ingestion.Pipeline).
//   - audit: receives one ingestion log entry per successful upload; may be nil.
func NewHandler(svc service.AggregationService, ingester Ingester, audit storage.IngestionLogger) *Handler {
	return &Handler{svc: svc, ingester: ingester, audit: audit}
}

// Upload handles POST /stock/upload.
//
// Upload godoc
// @Summary      Upload a CSV file of daily trading records
// @Description  Validates every row, stores the valid ones and reports the rejected rows
// @Tags         stock
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file with header row"
// @Success      200   {object}  dto.UploadResponse  "Ingestion summary"
// @Failure      400   {object}  dto.ErrorResponse   "No file uploaded"
// @Failure      500   {object}  dto.ErrorResponse   "File could not be processed"
// @Router       /stock/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile(uploadFormField)
	// temp files backing the multipart form are released here, not by the pipeline
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(msgNoFile, nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, msgReadFailed, fmt.Errorf("open upload %q: %w", fh.Filename, err))
		return
	}
	defer func() { _ = f.Close() }()

	src, err := ingestion.NewCSVSource(f)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, msgReadFailed, fmt.Errorf("read upload header %q: %w", fh.Filename, err))
		return
	}

	summary, err := h.ingester.Ingest(c.Request.Context(), src)
	if err != nil {
		var readErr *ingestion.SourceReadError
		msg := msgProcessFailed
		if errors.As(err, &readErr) {
			msg = msgReadFailed
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, msg,
			fmt.Errorf("upload %q aborted after %d rows: %w", fh.Filename, summary.TotalRecords, err))
		return
	}

	if h.audit != nil {
		ingestion.Audit(c.Request.Context(), h.audit, fh.Filename, summary)
	}
	c.JSON(http.StatusOK, dto.NewUploadResponse(summary))
}

// GetHighestVolume handles GET /stock/highest-volume.
//
// GetHighestVolume godoc
// @Summary      Record with the highest volume
// @Description  Returns the record with the largest volume in the inclusive date range; ties go to the earliest date
// @Tags         stock
// @Produce      json
// @Param        start_date  query     string  true   "Start date (YYYY-MM-DD)" example(2024-01-01)
// @Param        end_date    query     string  true   "End date (YYYY-MM-DD)"   example(2024-01-31)
// @Param        symbol      query     string  false  "Exact, case-sensitive symbol" example(ULTRACEMCO)
// @Success      200         {object}  dto.HighestVolumeResponse
// @Failure      400         {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404         {object}  dto.ErrorResponse  "Not Found"
// @Failure      500         {object}  dto.ErrorResponse  "Internal Error"
// @Router       /stock/highest-volume [get]
func (h *Handler) GetHighestVolume(c *gin.Context) {
	q, ok := h.rangeQuery(c)
	if !ok {
		return
	}
	rec, err := h.svc.HighestVolume(c.Request.Context(), q)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HighestVolumeResponse{
		HighestVolume: dto.VolumeRecord{Date: rec.Date, Symbol: rec.Symbol, Volume: rec.Volume},
	})
}

// GetAverageClose handles GET /stock/average-close.
//
// GetAverageClose godoc
// @Summary      Average closing price
// @Tags         stock
// @Produce      json
// @Param        start_date  query     string  true   "Start date (YYYY-MM-DD)" example(2024-01-01)
// @Param        end_date    query     string  true   "End date (YYYY-MM-DD)"   example(2024-01-31)
// @Param        symbol      query     string  false  "Exact, case-sensitive symbol" example(ULTRACEMCO)
// @Success      200         {object}  dto.AverageCloseResponse
// @Failure      400         {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404         {object}  dto.ErrorResponse  "Not Found"
// @Failure      500         {object}  dto.ErrorResponse  "Internal Error"
// @Router       /stock/average-close [get]
func (h *Handler) GetAverageClose(c *gin.Context) {
	q, ok := h.rangeQuery(c)
	if !ok {
		return
	}
	avg, err := h.svc.AverageClose(c.Request.Context(), q)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AverageCloseResponse{AverageClose: avg})
}

// GetAverageVWAP handles GET /stock/average-vwap.
//
// GetAverageVWAP godoc
// @Summary      Average volume-weighted price
// @Tags         stock
// @Produce      json
// @Param        start_date  query     string  true   "Start date (YYYY-MM-DD)" example(2024-01-01)
// @Param        end_date    query     string  true   "End date (YYYY-MM-DD)"   example(2024-01-31)
// @Param        symbol      query     string  false  "Exact, case-sensitive symbol" example(ULTRACEMCO)
// @Success      200         {object}  dto.AverageVWAPResponse
// @Failure      400         {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404         {object}  dto.ErrorResponse  "Not Found"
// @Failure      500         {object}  dto.ErrorResponse  "Internal Error"
// @Router       /stock/average-vwap [get]
func (h *Handler) GetAverageVWAP(c *gin.Context) {
	q, ok := h.rangeQuery(c)
	if !ok {
		return
	}
	avg, err := h.svc.AverageVWAP(c.Request.Context(), q)
	if err != nil {
		h.queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AverageVWAPResponse{AverageVWAP: avg})
}

// rangeQuery binds and validates the shared query string. It writes the 400 itself.
func (h *Handler) rangeQuery(c *gin.Context) (models.AggregateQuery, bool) {
	var params dto.RangeQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(msgInvalidRange, nil))
		return models.AggregateQuery{}, false
	}
	q, err := service.NewAggregateQuery(params.StartDate, params.EndDate, params.Symbol)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid date range", err))
		return models.AggregateQuery{}, false
	}
	return q, true
}

func (h *Handler) queryFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(msgNotFound, nil))
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid date range", err))
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, msgQueryFailed, fmt.Errorf("aggregate query: %w", err))
	}
}
