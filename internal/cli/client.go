package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/septivank/environment-monitor/internal/api"
	"github.com/septivank/environment-monitor/internal/model"
)

// APIClient talks to the service's REST adapter
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx answer from the service
type APIError struct {
	Status  int
	Kind    model.Kind
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (c *APIClient) ListDevices(ctx context.Context, query url.Values) ([]model.Device, error) {
	var devices []model.Device
	err := c.do(ctx, http.MethodGet, "/api/devices", query, nil, &devices)
	return devices, err
}

func (c *APIClient) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	if err := c.do(ctx, http.MethodGet, "/api/devices/"+url.PathEscape(id), nil, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *APIClient) CreateDevice(ctx context.Context, req api.DeviceRequest) (*model.Device, error) {
	var device model.Device
	if err := c.do(ctx, http.MethodPost, "/api/devices", nil, req, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *APIClient) UpdateDevice(ctx context.Context, id string, req api.DeviceRequest) (*model.Device, error) {
	var device model.Device
	if err := c.do(ctx, http.MethodPut, "/api/devices/"+url.PathEscape(id), nil, req, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *APIClient) DeleteDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/devices/"+url.PathEscape(id), nil, nil, nil)
}

func (c *APIClient) Ingest(ctx context.Context, raw model.RawReading) (*model.Metric, error) {
	var metric model.Metric
	if err := c.do(ctx, http.MethodPost, "/api/metrics/ingest", nil, raw, &metric); err != nil {
		return nil, err
	}
	return &metric, nil
}

func (c *APIClient) Average(ctx context.Context, query url.Values) (*model.AverageResult, error) {
	var result model.AverageResult
	if err := c.do(ctx, http.MethodGet, "/api/metrics/average", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Raw(ctx context.Context, query url.Values) ([]model.Metric, error) {
	var metrics []model.Metric
	err := c.do(ctx, http.MethodGet, "/api/metrics/raw", query, nil, &metrics)
	return metrics, err
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var payload api.ErrorResponse
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Kind = payload.Kind
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
