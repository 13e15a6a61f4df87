package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/environment-monitor/internal/api"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"github.com/septivank/environment-monitor/internal/service"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/septivank/environment-monitor/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, checks map[string]api.HealthCheck) http.Handler {
	logger := zaptest.NewLogger(t)
	reg := registry.NewRegistry(store.NewMemoryDeviceStore(), logger, nil)
	metrics := store.NewMemoryMetricStore()
	ingestion := service.NewIngestionService(reg, metrics, nil, logger, nil)
	query := service.NewAggregationService(metrics, window.NewResolver(0, nil), logger)

	return api.NewRouter(logger,
		api.NewDeviceController(reg, time.Second, logger),
		api.NewMetricController(ingestion, query, time.Second, logger),
		api.NewHealthController(checks, time.Second),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createDevice(t *testing.T, h http.Handler, id, status string) {
	w := do(t, h, http.MethodPost, "/api/devices", api.DeviceRequest{
		ID:         id,
		Protocol:   "REST",
		Room:       "A101",
		Department: "Informatica",
		Floor:      "Piso1",
		Building:   "EdificioII",
		Status:     status,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func readingBody(deviceID string, ts time.Time) map[string]any {
	return map[string]any{
		"deviceId":    deviceID,
		"temperature": 22.0,
		"humidity":    45.0,
		"timestamp":   ts.UTC().Format(time.RFC3339),
	}
}

func TestDevices_CRUD(t *testing.T) {
	h := newRouter(t, nil)
	createDevice(t, h, "rest-device-001", "")

	w := do(t, h, http.MethodGet, "/api/devices/rest-device-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var device model.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
	assert.Equal(t, model.StatusActive, device.Status)
	assert.Equal(t, "A101", device.Room)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, h, http.MethodPost, "/api/devices", api.DeviceRequest{
		ID: "rest-device-001", Protocol: "REST", Room: "A101", Department: "Informatica", Building: "EdificioII",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPut, "/api/devices/rest-device-001", api.DeviceRequest{
		Protocol: "MQTT", Room: "B202", Department: "Matematica", Floor: "Piso2", Building: "EdificioI", Status: "INACTIVE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
	assert.Equal(t, "B202", device.Room)
	assert.Equal(t, model.StatusInactive, device.Status)

	w = do(t, h, http.MethodGet, "/api/devices?status=inactive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var devices []model.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	assert.Len(t, devices, 1)

	w = do(t, h, http.MethodDelete, "/api/devices/rest-device-001", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/devices/rest-device-001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/api/devices/rest-device-001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDevices_Invalid(t *testing.T) {
	h := newRouter(t, nil)

	w := do(t, h, http.MethodPost, "/api/devices", api.DeviceRequest{ID: "x", Protocol: "COAP", Room: "A", Department: "D", Building: "B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/devices", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/devices?protocol=carrier-pigeon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngest_StatusCodes(t *testing.T) {
	h := newRouter(t, nil)
	createDevice(t, h, "active", "")
	createDevice(t, h, "inactive", "INACTIVE")
	now := time.Now()

	w := do(t, h, http.MethodPost, "/api/metrics/ingest", readingBody("active", now))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var metric model.Metric
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metric))
	assert.Equal(t, int64(1), metric.ID)
	assert.Equal(t, "EdificioII", metric.Building)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest", readingBody("inactive", now))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.KindDeviceInactive, resp.Kind)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest", readingBody("ghost", now))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest", map[string]any{"deviceId": "active", "temperature": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.KindMalformedReading, resp.Kind)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest", `{"temperature":"hot"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestBatch(t *testing.T) {
	h := newRouter(t, nil)
	createDevice(t, h, "active", "")
	now := time.Now()

	w := do(t, h, http.MethodPost, "/api/metrics/ingest/batch", map[string]any{
		"readings": []any{readingBody("active", now), readingBody("ghost", now)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result model.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest/batch", map[string]any{
		"readings": []any{readingBody("ghost", now)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/metrics/ingest/batch", map[string]any{"readings": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAverageAndRaw(t *testing.T) {
	h := newRouter(t, nil)
	createDevice(t, h, "active", "")
	now := time.Now()

	for _, ts := range []time.Time{now.Add(-2 * time.Minute), now.Add(-time.Minute)} {
		w := do(t, h, http.MethodPost, "/api/metrics/ingest", readingBody("active", ts))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, h, http.MethodGet, "/api/metrics/average?level=sala&id=A101", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var avg model.AverageResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avg))
	assert.Equal(t, int64(2), avg.Count)
	assert.InDelta(t, 22.0, avg.AvgTemperature, 1e-9)
	assert.Equal(t, model.LevelRoom, avg.Level)

	w = do(t, h, http.MethodGet, "/api/metrics/average?level=campus&id=A101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/metrics/average?level=room&id=A101&from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/metrics/raw?deviceId=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics []model.Metric
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	require.Len(t, metrics, 2)
	assert.True(t, metrics[0].Timestamp.Before(metrics[1].Timestamp))

	w = do(t, h, http.MethodGet, "/api/metrics/raw?deviceId=nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = do(t, h, http.MethodGet, "/api/metrics/raw", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, model.KindMalformedReading, errBody.Kind)

	w = do(t, h, http.MethodGet, "/api/metrics/average?level=floor&id=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avg))
	assert.Equal(t, int64(0), avg.Count)
}

func TestHealth(t *testing.T) {
	ok := newRouter(t, map[string]api.HealthCheck{
		"storage": func(context.Context) error { return nil },
	})
	w := do(t, ok, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newRouter(t, map[string]api.HealthCheck{
		"storage": func(context.Context) error { return errors.New("connection refused") },
	})
	w = do(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
