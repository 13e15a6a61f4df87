package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists    = errors.New("device already exists")
	ErrNotFound         = errors.New("device not found")
	ErrInvalidDevice    = errors.New("invalid device")
	ErrDeviceNotFound   = errors.New("reading references an unregistered device")
	ErrDeviceInactive   = errors.New("reading references an inactive device")
	ErrMalformedReading = errors.New("malformed reading")
	ErrInvalidLevel     = errors.New("invalid aggregation level")
	ErrStorageFailure   = errors.New("storage failure")
)

// Kind names an error class for transports and batch results
type Kind string

const (
	KindAlreadyExists    Kind = "ALREADY_EXISTS"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidDevice    Kind = "INVALID_DEVICE"
	KindDeviceNotFound   Kind = "DEVICE_NOT_FOUND"
	KindDeviceInactive   Kind = "DEVICE_INACTIVE"
	KindMalformedReading Kind = "MALFORMED_READING"
	KindInvalidLevel     Kind = "INVALID_LEVEL"
	KindStorageFailure   Kind = "STORAGE_FAILURE"
	KindUnknown          Kind = "UNKNOWN"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrAlreadyExists, KindAlreadyExists},
	{ErrNotFound, KindNotFound},
	{ErrInvalidDevice, KindInvalidDevice},
	{ErrDeviceNotFound, KindDeviceNotFound},
	{ErrDeviceInactive, KindDeviceInactive},
	{ErrMalformedReading, KindMalformedReading},
	{ErrInvalidLevel, KindInvalidLevel},
	{ErrStorageFailure, KindStorageFailure},
}

// KindOf classifies err. Context errors count as storage failures since they
// only ever abort a storage call.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindStorageFailure
	}
	return KindUnknown
}

// Retryable reports whether a caller may resubmit the same request
func Retryable(err error) bool {
	return KindOf(err) == KindStorageFailure
}

// StorageError wraps a driver error as a retryable storage failure
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
