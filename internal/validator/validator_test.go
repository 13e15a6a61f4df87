package validator_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/validator"
)

func ptr(v float64) *float64 { return &v }

func TestValidateReading_ValidData(t *testing.T) {
	raw := model.RawReading{
		DeviceID:    "rest-device-001",
		Temperature: ptr(22.5),
		Humidity:    ptr(48),
		Timestamp:   "2025-01-15T10:00:00Z",
	}

	reading, err := validator.ValidateReading(raw)
	if err != nil {
		t.Fatalf("Expected valid reading, got %v", err)
	}

	if reading.Temperature != 22.5 || reading.Humidity != 48 {
		t.Errorf("Unexpected values %+v", reading)
	}

	expectedTime := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	if !reading.Timestamp.Equal(expectedTime) {
		t.Errorf("Expected timestamp %v, got %v", expectedTime, reading.Timestamp)
	}
}

func TestValidateReading_ZeroValuesAreNotMissing(t *testing.T) {
	raw := model.RawReading{
		DeviceID:    "rest-device-001",
		Temperature: ptr(0),
		Humidity:    ptr(0),
		Timestamp:   "2025-01-15T10:00:00Z",
	}

	if _, err := validator.ValidateReading(raw); err != nil {
		t.Errorf("Expected zero readings to be accepted, got %v", err)
	}
}

func TestValidateReading_OutOfRangeAccepted(t *testing.T) {
	raw := model.RawReading{
		DeviceID:    "rest-device-001",
		Temperature: ptr(-400),
		Humidity:    ptr(250),
		Timestamp:   "2025-01-15T10:00:00Z",
	}

	if _, err := validator.ValidateReading(raw); err != nil {
		t.Errorf("Expected no range validation, got %v", err)
	}
}

func TestValidateReading_MissingFields(t *testing.T) {
	complete := func() model.RawReading {
		return model.RawReading{
			DeviceID:    "rest-device-001",
			Temperature: ptr(22.5),
			Humidity:    ptr(48),
			Timestamp:   "2025-01-15T10:00:00Z",
		}
	}

	cases := map[string]func(r *model.RawReading){
		"deviceId":    func(r *model.RawReading) { r.DeviceID = "" },
		"temperature": func(r *model.RawReading) { r.Temperature = nil },
		"humidity":    func(r *model.RawReading) { r.Humidity = nil },
		"timestamp":   func(r *model.RawReading) { r.Timestamp = "" },
	}

	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			raw := complete()
			mutate(&raw)

			_, err := validator.ValidateReading(raw)
			if !errors.Is(err, model.ErrMalformedReading) {
				t.Fatalf("Expected malformed reading error, got %v", err)
			}
			if !strings.Contains(err.Error(), "missing field: "+field) {
				t.Errorf("Expected error to name %s, got %q", field, err.Error())
			}
		})
	}
}

func TestValidateReading_UnparseableTimestamp(t *testing.T) {
	raw := model.RawReading{
		DeviceID:    "rest-device-001",
		Temperature: ptr(22.5),
		Humidity:    ptr(48),
		Timestamp:   "yesterday",
	}

	_, err := validator.ValidateReading(raw)
	if model.KindOf(err) != model.KindMalformedReading {
		t.Errorf("Expected MALFORMED_READING, got %v", err)
	}
}
