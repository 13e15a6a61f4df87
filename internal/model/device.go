package model

import (
	"fmt"
	"strings"
	"time"
)

// Protocol is the transport a device reports over. It is informational only.
type Protocol string

const (
	ProtocolMQTT Protocol = "MQTT"
	ProtocolGRPC Protocol = "GRPC"
	ProtocolREST Protocol = "REST"
)

// ParseProtocol parses a protocol name case-insensitively
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProtocolMQTT, ProtocolGRPC, ProtocolREST:
		return p, nil
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

// DeviceStatus gates ingestion: only ACTIVE devices may report
type DeviceStatus string

const (
	StatusActive   DeviceStatus = "ACTIVE"
	StatusInactive DeviceStatus = "INACTIVE"
)

// ParseDeviceStatus parses a status name case-insensitively
func ParseDeviceStatus(s string) (DeviceStatus, error) {
	switch st := DeviceStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Location is the four-level hierarchy a device is installed in
type Location struct {
	Room       string `json:"room"`
	Department string `json:"department"`
	Floor      string `json:"floor"`
	Building   string `json:"building"`
}

// Device is a registered sensor
type Device struct {
	ID       string       `json:"id"`
	Protocol Protocol     `json:"protocol"`
	Location              // flattened in JSON
	Status   DeviceStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeviceFields are the mutable attributes of a device
type DeviceFields struct {
	Protocol Protocol
	Location Location
	Status   DeviceStatus
}

// DeviceFilter narrows a device listing. Empty fields match everything.
type DeviceFilter struct {
	Protocol Protocol
	Status   DeviceStatus
	Location Location
}

// Matches reports whether d satisfies every non-empty field of f
func (f DeviceFilter) Matches(d Device) bool {
	switch {
	case f.Protocol != "" && d.Protocol != f.Protocol:
		return false
	case f.Status != "" && d.Status != f.Status:
		return false
	case f.Location.Room != "" && d.Room != f.Location.Room:
		return false
	case f.Location.Department != "" && d.Department != f.Location.Department:
		return false
	case f.Location.Floor != "" && d.Floor != f.Location.Floor:
		return false
	case f.Location.Building != "" && d.Building != f.Location.Building:
		return false
	}
	return true
}
