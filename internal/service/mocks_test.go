package service_test

import (
	"context"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/stretchr/testify/mock"
)

type mockDeviceStore struct {
	mock.Mock
}

func (m *mockDeviceStore) Insert(ctx context.Context, device model.Device) error {
	return m.Called(ctx, device).Error(0)
}

func (m *mockDeviceStore) FindByID(ctx context.Context, id string) (*model.Device, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *mockDeviceStore) FindAll(ctx context.Context, filter model.DeviceFilter) ([]model.Device, error) {
	args := m.Called(ctx, filter)
	d, _ := args.Get(0).([]model.Device)
	return d, args.Error(1)
}

func (m *mockDeviceStore) Update(ctx context.Context, id string, fields model.DeviceFields, updatedAt time.Time) (*model.Device, error) {
	args := m.Called(ctx, id, fields, updatedAt)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *mockDeviceStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockMetricStore struct {
	mock.Mock
}

func (m *mockMetricStore) Save(ctx context.Context, metric *model.Metric) error {
	return m.Called(ctx, metric).Error(0)
}

func (m *mockMetricStore) FindByID(ctx context.Context, id int64) (*model.Metric, error) {
	args := m.Called(ctx, id)
	metric, _ := args.Get(0).(*model.Metric)
	return metric, args.Error(1)
}

func (m *mockMetricStore) FindByFilter(ctx context.Context, filter model.MetricFilter) ([]model.Metric, error) {
	args := m.Called(ctx, filter)
	metrics, _ := args.Get(0).([]model.Metric)
	return metrics, args.Error(1)
}

func (m *mockMetricStore) Aggregate(ctx context.Context, filter model.MetricFilter) (model.Aggregate, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(model.Aggregate), args.Error(1)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) MetricAccepted(ctx context.Context, metric model.Metric) error {
	return m.Called(ctx, metric).Error(0)
}
