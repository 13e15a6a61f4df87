package validator

import (
	"fmt"
	"strings"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/tools/timeparser"
)

// ValidateReading checks that a raw reading carries every required field and
// a parseable timestamp. Values are not range-checked.
func ValidateReading(raw model.RawReading) (model.Reading, error) {
	deviceID := strings.TrimSpace(raw.DeviceID)
	if deviceID == "" {
		return model.Reading{}, fmt.Errorf("%w: missing field: deviceId", model.ErrMalformedReading)
	}

	if raw.Temperature == nil {
		return model.Reading{}, fmt.Errorf("%w: missing field: temperature", model.ErrMalformedReading)
	}

	if raw.Humidity == nil {
		return model.Reading{}, fmt.Errorf("%w: missing field: humidity", model.ErrMalformedReading)
	}

	if strings.TrimSpace(raw.Timestamp) == "" {
		return model.Reading{}, fmt.Errorf("%w: missing field: timestamp", model.ErrMalformedReading)
	}

	ts, err := timeparser.ParseTimestamp(raw.Timestamp)
	if err != nil {
		return model.Reading{}, fmt.Errorf("%w: invalid timestamp: %v", model.ErrMalformedReading, err)
	}

	return model.Reading{
		DeviceID:    deviceID,
		Temperature: *raw.Temperature,
		Humidity:    *raw.Humidity,
		Timestamp:   timeparser.Truncate(ts),
	}, nil
}
