package model

import (
	"fmt"
	"strings"
	"time"
)

// RawReading is the canonical reading shape every transport decodes into.
// Pointers distinguish a missing value from a zero one.
type RawReading struct {
	DeviceID    string   `json:"deviceId"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timestamp   string   `json:"timestamp"`
}

// Reading is a RawReading that passed validation
type Reading struct {
	DeviceID    string
	Temperature float64
	Humidity    float64
	Timestamp   time.Time
}

// Metric is a persisted reading. Location is a snapshot of the device's
// location at ingestion time and never follows later device updates.
type Metric struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"deviceId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
	ReceivedAt  time.Time `json:"receivedAt"`
	Location
}

// Level is one granularity of the location hierarchy
type Level string

const (
	LevelRoom       Level = "room"
	LevelDepartment Level = "department"
	LevelFloor      Level = "floor"
	LevelBuilding   Level = "building"
)

var levelAliases = map[string]Level{
	"room":         LevelRoom,
	"sala":         LevelRoom,
	"department":   LevelDepartment,
	"departamento": LevelDepartment,
	"floor":        LevelFloor,
	"piso":         LevelFloor,
	"building":     LevelBuilding,
	"edificio":     LevelBuilding,
}

// ParseLevel accepts the English level names and their Portuguese aliases
func ParseLevel(s string) (Level, error) {
	if l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Value returns the location field selected by level
func (l Location) Value(level Level) string {
	switch level {
	case LevelRoom:
		return l.Room
	case LevelDepartment:
		return l.Department
	case LevelFloor:
		return l.Floor
	case LevelBuilding:
		return l.Building
	}
	return ""
}

// MetricFilter selects metrics in the half-open window [From, To).
// Either DeviceID or Level/LevelValue is set.
type MetricFilter struct {
	DeviceID   string
	Level      Level
	LevelValue string
	From       time.Time
	To         time.Time
}

// Matches reports whether m falls inside the filter
func (f MetricFilter) Matches(m Metric) bool {
	if f.DeviceID != "" && m.DeviceID != f.DeviceID {
		return false
	}
	if f.Level != "" && m.Location.Value(f.Level) != f.LevelValue {
		return false
	}
	return !m.Timestamp.Before(f.From) && m.Timestamp.Before(f.To)
}

// Aggregate is the count and means over one matching set
type Aggregate struct {
	Count          int64
	AvgTemperature float64
	AvgHumidity    float64
}

// AverageResult answers a hierarchical average query
type AverageResult struct {
	Level          Level     `json:"level"`
	ID             string    `json:"id"`
	AvgTemperature float64   `json:"avgTemperature"`
	AvgHumidity    float64   `json:"avgHumidity"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Count          int64     `json:"count"`
}

// BatchFailure describes one rejected item of a batch
type BatchFailure struct {
	Index    int    `json:"index"`
	DeviceID string `json:"deviceId"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
}

// BatchResult summarizes a continue-on-error batch ingestion
type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Total     int            `json:"total"`
	Failures  []BatchFailure `json:"failures"`
}

// OK reports overall success: at least one item was stored
func (r BatchResult) OK() bool {
	return r.Succeeded > 0
}

// Retryable reports whether a failed batch is worth resubmitting, i.e. at
// least one item failed for a transient reason.
func (r BatchResult) Retryable() bool {
	for _, f := range r.Failures {
		if f.Kind == KindStorageFailure {
			return true
		}
	}
	return false
}
