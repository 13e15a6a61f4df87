package timeparser

import (
	"fmt"
	"strings"
	"time"
)

// ParseTimestamp parses device and query timestamps. Zoned RFC 3339 values
// keep their offset; ISO local values without a zone are read as UTC.
func ParseTimestamp(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,                // 2025-12-29T10:30:45.123+01:00
		"2006-01-02T15:04:05.999999999", // ISO local with fraction
		"2006-01-02T15:04:05",           // ISO local
		"2006-01-02 15:04:05",           // SQL style
	}

	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", dateStr, lastErr)
}

// ParseOptional parses an optional query bound. An empty string yields nil.
func ParseOptional(dateStr string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Truncate drops precision PostgreSQL cannot store so timestamps round-trip
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
