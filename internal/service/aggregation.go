package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/septivank/environment-monitor/internal/window"
	"go.uber.org/zap"
)

// AggregationService answers hierarchical average and raw history queries
type AggregationService struct {
	metrics  store.MetricStore
	resolver *window.Resolver
	logger   *zap.Logger
}

// NewAggregationService creates the query side of the service
func NewAggregationService(metrics store.MetricStore, resolver *window.Resolver, logger *zap.Logger) *AggregationService {
	return &AggregationService{
		metrics:  metrics,
		resolver: resolver,
		logger:   logger,
	}
}

// Average returns mean temperature and humidity of metrics whose location
// snapshot matches id at level, within [from, to). An empty set averages 0.
// A blank id names no location and always yields the empty set, even though
// devices without a floor store an empty floor.
func (s *AggregationService) Average(ctx context.Context, level, id string, from, to *time.Time) (*model.AverageResult, error) {
	lvl, err := model.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	start, end := s.resolver.Resolve(from, to)

	var agg model.Aggregate
	if strings.TrimSpace(id) != "" {
		agg, err = s.metrics.Aggregate(ctx, model.MetricFilter{
			Level:      lvl,
			LevelValue: id,
			From:       start,
			To:         end,
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("average computed",
		zap.String("level", string(lvl)),
		zap.String("id", id),
		zap.Int64("count", agg.Count),
	)

	return &model.AverageResult{
		Level:          lvl,
		ID:             id,
		AvgTemperature: agg.AvgTemperature,
		AvgHumidity:    agg.AvgHumidity,
		From:           start,
		To:             end,
		Count:          agg.Count,
	}, nil
}

// RawMetrics returns the metrics of one device within [from, to) ordered by
// timestamp, ties by id. deviceID is required.
func (s *AggregationService) RawMetrics(ctx context.Context, deviceID string, from, to *time.Time) ([]model.Metric, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, fmt.Errorf("%w: deviceId is required", model.ErrMalformedReading)
	}

	start, end := s.resolver.Resolve(from, to)
	metrics, err := s.metrics.FindByFilter(ctx, model.MetricFilter{
		DeviceID: deviceID,
		From:     start,
		To:       end,
	})
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = []model.Metric{}
	}
	return metrics, nil
}
