// Package store defines the persistence contracts the registry and the
// ingestion/aggregation services depend on.
package store

import (
	"context"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
)

// DeviceStore persists devices. Every method is a single atomic operation,
// which is what serializes concurrent mutations of one device id.
type DeviceStore interface {
	// Insert fails with model.ErrAlreadyExists when the id is taken
	Insert(ctx context.Context, device model.Device) error
	// FindByID fails with model.ErrNotFound
	FindByID(ctx context.Context, id string) (*model.Device, error)
	FindAll(ctx context.Context, filter model.DeviceFilter) ([]model.Device, error)
	// Update replaces protocol, location and status (kept when empty) and
	// sets updated_at. Fails with model.ErrNotFound.
	Update(ctx context.Context, id string, fields model.DeviceFields, updatedAt time.Time) (*model.Device, error)
	// Delete fails with model.ErrNotFound
	Delete(ctx context.Context, id string) error
}

// MetricStore persists immutable metrics
type MetricStore interface {
	// Save assigns the next surrogate id to metric
	Save(ctx context.Context, metric *model.Metric) error
	FindByID(ctx context.Context, id int64) (*model.Metric, error)
	// FindByFilter returns matches ordered by timestamp, then id
	FindByFilter(ctx context.Context, filter model.MetricFilter) ([]model.Metric, error)
	// Aggregate computes count and means over one consistent matching set
	Aggregate(ctx context.Context, filter model.MetricFilter) (model.Aggregate, error)
}

// Pinger reports storage reachability for health checks
type Pinger interface {
	Ping(ctx context.Context) error
}
