package mqttingest

import (
	"context"
	"testing"
	"time"

	"github.com/septivank/environment-monitor/internal/config"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"github.com/septivank/environment-monitor/internal/service"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestListener(t *testing.T) (*Listener, *registry.Registry, *store.MemoryMetricStore) {
	logger := zaptest.NewLogger(t)
	reg := registry.NewRegistry(store.NewMemoryDeviceStore(), logger, nil)
	metrics := store.NewMemoryMetricStore()
	ingestion := service.NewIngestionService(reg, metrics, nil, logger, nil)

	cfg := config.MQTTConfig{
		BrokerURL:        "tcp://127.0.0.1:1",
		ClientID:         "test",
		Topic:            "uevora/sensors/+",
		QoS:              1,
		ErrorTopicPrefix: "uevora/errors",
	}
	return NewListener(cfg, ingestion, time.Second, logger), reg, metrics
}

func TestHandle_DeviceIDFromTopic(t *testing.T) {
	l, reg, metrics := newTestListener(t)
	_, err := reg.Register(context.Background(), model.Device{
		ID:       "mqtt-sensor-001",
		Protocol: model.ProtocolMQTT,
		Location: model.Location{Room: "A101", Department: "Informatica", Floor: "Piso1", Building: "EdificioII"},
	})
	require.NoError(t, err)

	payload := []byte(`{"temperature":22.1,"humidity":51,"timestamp":"2025-01-15T10:00:00Z"}`)
	rejection := l.handle(context.Background(), "uevora/sensors/mqtt-sensor-001", payload)

	assert.Nil(t, rejection)
	assert.Equal(t, 1, metrics.Count())
}

func TestHandle_UnknownDeviceRejected(t *testing.T) {
	l, _, metrics := newTestListener(t)

	payload := []byte(`{"deviceId":"ghost","temperature":22.1,"humidity":51,"timestamp":"2025-01-15T10:00:00Z"}`)
	rejection := l.handle(context.Background(), "uevora/sensors/other", payload)

	require.NotNil(t, rejection)
	assert.Equal(t, model.KindDeviceNotFound, rejection.Kind)
	assert.Equal(t, "ghost", rejection.DeviceID)
	assert.Equal(t, 0, metrics.Count())
}

func TestHandle_UndecodablePayload(t *testing.T) {
	l, _, _ := newTestListener(t)

	rejection := l.handle(context.Background(), "uevora/sensors/dev-9", []byte(`{{`))

	require.NotNil(t, rejection)
	assert.Equal(t, model.KindMalformedReading, rejection.Kind)
	assert.Equal(t, "dev-9", rejection.DeviceID)
}

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "dev-1", deviceFromTopic("uevora/sensors/dev-1"))
	assert.Equal(t, "dev-1", deviceFromTopic("uevora/sensors/dev-1/"))
	assert.Equal(t, "solo", deviceFromTopic("solo"))
}
