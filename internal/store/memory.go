package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
)

var (
	_ DeviceStore = (*MemoryDeviceStore)(nil)
	_ MetricStore = (*MemoryMetricStore)(nil)
	_ Pinger      = (*MemoryDeviceStore)(nil)
)

// MemoryDeviceStore is a DeviceStore kept in process memory
type MemoryDeviceStore struct {
	mu      sync.RWMutex
	devices map[string]model.Device
}

// NewMemoryDeviceStore creates an empty device store
func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{devices: make(map[string]model.Device)}
}

func (s *MemoryDeviceStore) Insert(ctx context.Context, device model.Device) error {
	if err := ctx.Err(); err != nil {
		return model.StorageError("insert device", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[device.ID]; ok {
		return fmt.Errorf("%w: %s", model.ErrAlreadyExists, device.ID)
	}
	s.devices[device.ID] = device
	return nil
}

func (s *MemoryDeviceStore) FindByID(ctx context.Context, id string) (*model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.StorageError("find device", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return &d, nil
}

func (s *MemoryDeviceStore) FindAll(ctx context.Context, filter model.DeviceFilter) ([]model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.StorageError("list devices", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]model.Device, 0, len(s.devices))
	for _, d := range s.devices {
		if filter.Matches(d) {
			devices = append(devices, d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

func (s *MemoryDeviceStore) Update(ctx context.Context, id string, fields model.DeviceFields, updatedAt time.Time) (*model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.StorageError("update device", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	d.Protocol = fields.Protocol
	d.Location = fields.Location
	if fields.Status != "" {
		d.Status = fields.Status
	}
	d.UpdatedAt = updatedAt
	s.devices[id] = d
	return &d, nil
}

func (s *MemoryDeviceStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return model.StorageError("delete device", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	delete(s.devices, id)
	return nil
}

func (s *MemoryDeviceStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// MemoryMetricStore is a MetricStore kept in process memory. Ids are
// assigned densely from 1 and metrics are never removed.
type MemoryMetricStore struct {
	mu      sync.RWMutex
	metrics []model.Metric
}

// NewMemoryMetricStore creates an empty metric store
func NewMemoryMetricStore() *MemoryMetricStore {
	return &MemoryMetricStore{}
}

func (s *MemoryMetricStore) Save(ctx context.Context, metric *model.Metric) error {
	if err := ctx.Err(); err != nil {
		return model.StorageError("insert metric", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	metric.ID = int64(len(s.metrics)) + 1
	s.metrics = append(s.metrics, *metric)
	return nil
}

func (s *MemoryMetricStore) FindByID(ctx context.Context, id int64) (*model.Metric, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.StorageError("find metric", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > int64(len(s.metrics)) {
		return nil, fmt.Errorf("metric %d not found", id)
	}
	m := s.metrics[id-1]
	return &m, nil
}

func (s *MemoryMetricStore) FindByFilter(ctx context.Context, filter model.MetricFilter) ([]model.Metric, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.StorageError("query metrics", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Metric
	for _, m := range s.metrics {
		if filter.Matches(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryMetricStore) Aggregate(ctx context.Context, filter model.MetricFilter) (model.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return model.Aggregate{}, model.StorageError("aggregate metrics", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agg model.Aggregate
	var sumTemp, sumHum float64
	for _, m := range s.metrics {
		if !filter.Matches(m) {
			continue
		}
		agg.Count++
		sumTemp += m.Temperature
		sumHum += m.Humidity
	}
	if agg.Count > 0 {
		agg.AvgTemperature = sumTemp / float64(agg.Count)
		agg.AvgHumidity = sumHum / float64(agg.Count)
	}
	return agg, nil
}

// Count returns the number of stored metrics
func (s *MemoryMetricStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.metrics)
}
