package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/septivank/environment-monitor/internal/validator"
	"github.com/septivank/environment-monitor/tools/timeparser"
	"go.uber.org/zap"
)

// ReadingIngester is the capability every transport adapter depends on
type ReadingIngester interface {
	Ingest(ctx context.Context, raw model.RawReading) (*model.Metric, error)
	IngestBatch(ctx context.Context, raws []model.RawReading) model.BatchResult
}

// MetricObserver is notified after a metric has been stored
type MetricObserver interface {
	MetricAccepted(ctx context.Context, metric model.Metric) error
}

var _ ReadingIngester = (*IngestionService)(nil)

// IngestionService validates readings, gates them on device status and
// persists them with a snapshot of the device location
type IngestionService struct {
	registry *registry.Registry
	metrics  store.MetricStore
	observer MetricObserver
	logger   *zap.Logger
	now      func() time.Time
}

// NewIngestionService creates the ingestion pipeline. observer may be nil.
func NewIngestionService(
	reg *registry.Registry,
	metrics store.MetricStore,
	observer MetricObserver,
	logger *zap.Logger,
	now func() time.Time,
) *IngestionService {
	if now == nil {
		now = time.Now
	}
	return &IngestionService{
		registry: reg,
		metrics:  metrics,
		observer: observer,
		logger:   logger,
		now:      now,
	}
}

// Ingest stores one reading and returns the persisted metric
func (s *IngestionService) Ingest(ctx context.Context, raw model.RawReading) (*model.Metric, error) {
	reading, err := validator.ValidateReading(raw)
	if err != nil {
		return nil, err
	}

	// One read: the status check and the location snapshot come from the
	// same record.
	device, err := s.registry.Get(ctx, reading.DeviceID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, reading.DeviceID)
	}
	if err != nil {
		return nil, err
	}
	if device.Status != model.StatusActive {
		return nil, fmt.Errorf("%w: %s is %s", model.ErrDeviceInactive, device.ID, device.Status)
	}

	metric := &model.Metric{
		DeviceID:    reading.DeviceID,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Timestamp:   reading.Timestamp,
		ReceivedAt:  timeparser.Truncate(s.now()),
		Location:    device.Location,
	}
	if err := s.metrics.Save(ctx, metric); err != nil {
		return nil, err
	}

	s.logger.Debug("metric stored",
		zap.Int64("metric_id", metric.ID),
		zap.String("device_id", metric.DeviceID),
		zap.String("room", metric.Room),
	)

	if s.observer != nil {
		if err := s.observer.MetricAccepted(ctx, *metric); err != nil {
			// The metric is already committed; notification is best effort
			s.logger.Error("failed to notify metric observer",
				zap.Error(err),
				zap.Int64("metric_id", metric.ID),
			)
		}
	}

	return metric, nil
}

// IngestBatch ingests readings in order, continuing past failures. Each
// failure is reported with its position in raws.
func (s *IngestionService) IngestBatch(ctx context.Context, raws []model.RawReading) model.BatchResult {
	result := model.BatchResult{
		Total:    len(raws),
		Failures: []model.BatchFailure{},
	}

	for i, raw := range raws {
		if _, err := s.Ingest(ctx, raw); err != nil {
			result.Failures = append(result.Failures, model.BatchFailure{
				Index:    i,
				DeviceID: raw.DeviceID,
				Kind:     model.KindOf(err),
				Message:  err.Error(),
			})
			continue
		}
		result.Succeeded++
	}

	if len(result.Failures) > 0 {
		s.logger.Warn("batch ingested with failures",
			zap.Int("total", result.Total),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", len(result.Failures)),
		)
	}

	return result
}
