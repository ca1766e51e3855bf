package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/stockpulse/internal/middleware"
)

// RouterConfig carries the HTTP tuning knobs taken from config.ServerConfig
// and config.IngestionConfig.
type RouterConfig struct {
	RequestTimeout     time.Duration // deadline for aggregate queries
	UploadTimeout      time.Duration // deadline for a whole upload, ingestion included
	MaxMultipartMemory int64         // bytes kept in memory before the upload spills to a temp file
	RateLimitRPS       float64
	RateLimitBurst     int
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Metrics, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds per-group request timeouts (queries and uploads have separate budgets).
//   - Mounts Swagger docs (/swagger/*any) and Prometheus metrics (/metrics).
//   - Configures the stock routes (/stock).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if cfg.MaxMultipartMemory > 0 {
		router.MaxMultipartMemory = cfg.MaxMultipartMemory
	}

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)

	// ─── Swagger / Metrics ────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ─── Stock ────────────────────────────────────
	stock := router.Group("/stock", middleware.RateLimiter(middleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	{
		stock.POST("/upload", middleware.Timeout(cfg.UploadTimeout), handler.Upload)

		queries := stock.Group("", middleware.Timeout(cfg.RequestTimeout))
		queries.GET("/highest-volume", handler.GetHighestVolume)
		queries.GET("/average-close", handler.GetAverageClose)
		queries.GET("/average-vwap", handler.GetAverageVWAP)
	}

	return router
}
