package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/service"
	"github.com/septivank/environment-monitor/tools/timeparser"
	"go.uber.org/zap"
)

// MetricController handles reading ingestion and metric queries
type MetricController struct {
	ingester service.ReadingIngester
	query    *service.AggregationService
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMetricController creates a new metric controller
func NewMetricController(ingester service.ReadingIngester, query *service.AggregationService, timeout time.Duration, logger *zap.Logger) *MetricController {
	return &MetricController{
		ingester: ingester,
		query:    query,
		timeout:  timeout,
		logger:   logger,
	}
}

// RegisterRoutes registers the metric routes with Gin
func (mc *MetricController) RegisterRoutes(router gin.IRouter) {
	metrics := router.Group("/metrics")
	{
		metrics.POST("/ingest", mc.Ingest)
		metrics.POST("/ingest/batch", mc.IngestBatch)
		metrics.GET("/average", mc.Average)
		metrics.GET("/raw", mc.Raw)
	}
}

// BatchRequest is the body of a batch ingestion request
type BatchRequest struct {
	Readings []model.RawReading `json:"readings"`
}

func (mc *MetricController) Ingest(c *gin.Context) {
	var raw model.RawReading
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondBadRequest(c, model.KindMalformedReading, fmt.Errorf("%w: %v", model.ErrMalformedReading, err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), mc.timeout)
	defer cancel()

	metric, err := mc.ingester.Ingest(ctx, raw)
	if err != nil {
		respondError(c, mc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, metric)
}

func (mc *MetricController) IngestBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, model.KindMalformedReading, fmt.Errorf("%w: %v", model.ErrMalformedReading, err))
		return
	}

	// One timeout budget per reading
	ctx, cancel := context.WithTimeout(c.Request.Context(), mc.timeout*time.Duration(max(len(req.Readings), 1)))
	defer cancel()

	result := mc.ingester.IngestBatch(ctx, req.Readings)

	status := http.StatusOK
	switch {
	case result.OK():
	case result.Retryable():
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func (mc *MetricController) Average(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), mc.timeout)
	defer cancel()

	result, err := mc.query.Average(ctx, c.Query("level"), c.Query("id"), from, to)
	if err != nil {
		respondError(c, mc.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (mc *MetricController) Raw(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), mc.timeout)
	defer cancel()

	metrics, err := mc.query.RawMetrics(ctx, c.Query("deviceId"), from, to)
	if err != nil {
		respondError(c, mc.logger, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// parseWindow reads the optional from/to query bounds, answering 400 itself
// when one does not parse
func parseWindow(c *gin.Context) (*time.Time, *time.Time, bool) {
	from, err := timeparser.ParseOptional(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from: " + err.Error()})
		return nil, nil, false
	}
	to, err := timeparser.ParseOptional(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to: " + err.Error()})
		return nil, nil, false
	}
	return from, to, true
}
