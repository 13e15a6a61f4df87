package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/septivank/environment-monitor/internal/logging"
	"github.com/septivank/environment-monitor/internal/model"
	"go.uber.org/zap"
)

// ErrBatchRejected marks a batch message in which no reading was stored and
// no failure was transient
var ErrBatchRejected = errors.New("batch rejected")

// IngestMessage is the body of a queued message: either a single reading
// or an envelope of readings
type IngestMessage struct {
	Readings []model.RawReading `json:"readings"`
	model.RawReading
}

// ProcessorService turns queued messages into ingestion calls
type ProcessorService struct {
	ingester ReadingIngester
	logger   *zap.Logger
}

// NewProcessorService creates a new processor service
func NewProcessorService(ingester ReadingIngester, logger *zap.Logger) *ProcessorService {
	return &ProcessorService{
		ingester: ingester,
		logger:   logger,
	}
}

// ProcessMessage ingests one queued message. A nil error means the message
// can be acknowledged; otherwise model.Retryable tells whether redelivery may
// succeed.
func (s *ProcessorService) ProcessMessage(ctx context.Context, messageID string, body []byte) error {
	reqLogger := logging.WithRequestID(s.logger, messageID)

	var msg IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		reqLogger.Warn("undecodable message", zap.Error(err))
		return fmt.Errorf("%w: failed to unmarshal message: %v", model.ErrMalformedReading, err)
	}

	if !isBatch(body) {
		metric, err := s.ingester.Ingest(ctx, msg.RawReading)
		if err != nil {
			reqLogger.Warn("reading rejected",
				zap.Error(err),
				zap.String("device_id", msg.DeviceID),
				zap.String("kind", string(model.KindOf(err))),
			)
			return err
		}
		reqLogger.Info("message processed successfully",
			zap.Int64("metric_id", metric.ID),
			zap.String("device_id", metric.DeviceID),
		)
		return nil
	}

	result := s.ingester.IngestBatch(ctx, msg.Readings)
	reqLogger.Info("batch processed",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
	)
	if result.OK() {
		return nil
	}
	if result.Retryable() {
		return fmt.Errorf("%w: %d of %d readings failed", model.ErrStorageFailure, len(result.Failures), result.Total)
	}
	return fmt.Errorf("%w: %d of %d readings failed", ErrBatchRejected, len(result.Failures), result.Total)
}

// isBatch reports whether body is an envelope carrying a "readings" key
func isBatch(body []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &probe); err != nil {
		return false
	}
	_, ok := probe["readings"]
	return ok
}
