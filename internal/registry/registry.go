// Package registry is the single source of truth for device metadata
// consulted by ingestion.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/septivank/environment-monitor/tools/timeparser"
	"go.uber.org/zap"
)

// Registry manages device registration and lifecycle
type Registry struct {
	devices store.DeviceStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewRegistry creates a registry backed by devices. A nil clock uses time.Now.
func NewRegistry(devices store.DeviceStore, logger *zap.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		devices: devices,
		logger:  logger,
		now:     now,
	}
}

// Register stores a new device with status defaulted to ACTIVE and both
// timestamps set to now
func (r *Registry) Register(ctx context.Context, device model.Device) (*model.Device, error) {
	device.ID = strings.TrimSpace(device.ID)
	if device.ID == "" {
		return nil, fmt.Errorf("%w: id is required", model.ErrInvalidDevice)
	}
	fields, err := normalizeFields(model.DeviceFields{
		Protocol: device.Protocol,
		Location: device.Location,
		Status:   device.Status,
	})
	if err != nil {
		return nil, err
	}
	if fields.Status == "" {
		fields.Status = model.StatusActive
	}

	now := timeparser.Truncate(r.now())
	stored := model.Device{
		ID:        device.ID,
		Protocol:  fields.Protocol,
		Location:  fields.Location,
		Status:    fields.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.devices.Insert(ctx, stored); err != nil {
		return nil, err
	}

	r.logger.Info("device registered",
		zap.String("device_id", stored.ID),
		zap.String("protocol", string(stored.Protocol)),
		zap.String("status", string(stored.Status)),
	)
	return &stored, nil
}

// Get returns the current record of a device
func (r *Registry) Get(ctx context.Context, id string) (*model.Device, error) {
	return r.devices.FindByID(ctx, id)
}

// List returns devices matching filter, ordered by id
func (r *Registry) List(ctx context.Context, filter model.DeviceFilter) ([]model.Device, error) {
	return r.devices.FindAll(ctx, filter)
}

// Update replaces protocol, location and status of an existing device and
// refreshes updatedAt. An empty status keeps the current one.
func (r *Registry) Update(ctx context.Context, id string, fields model.DeviceFields) (*model.Device, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	device, err := r.devices.Update(ctx, id, fields, timeparser.Truncate(r.now()))
	if err != nil {
		return nil, err
	}

	r.logger.Info("device updated",
		zap.String("device_id", id),
		zap.String("room", device.Room),
		zap.String("status", string(device.Status)),
	)
	return device, nil
}

// Delete removes a device. Historical metrics are untouched.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.devices.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("device deleted", zap.String("device_id", id))
	return nil
}

// IsActive reports whether id is registered with status ACTIVE
func (r *Registry) IsActive(ctx context.Context, id string) (bool, error) {
	device, err := r.devices.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return device.Status == model.StatusActive, nil
}

func normalizeFields(f model.DeviceFields) (model.DeviceFields, error) {
	protocol, err := model.ParseProtocol(string(f.Protocol))
	if err != nil {
		return f, fmt.Errorf("%w: %v", model.ErrInvalidDevice, err)
	}
	f.Protocol = protocol

	if f.Status != "" {
		status, err := model.ParseDeviceStatus(string(f.Status))
		if err != nil {
			return f, fmt.Errorf("%w: %v", model.ErrInvalidDevice, err)
		}
		f.Status = status
	}

	f.Location = model.Location{
		Room:       strings.TrimSpace(f.Location.Room),
		Department: strings.TrimSpace(f.Location.Department),
		Floor:      strings.TrimSpace(f.Location.Floor),
		Building:   strings.TrimSpace(f.Location.Building),
	}
	switch {
	case f.Location.Room == "":
		return f, fmt.Errorf("%w: room is required", model.ErrInvalidDevice)
	case f.Location.Department == "":
		return f, fmt.Errorf("%w: department is required", model.ErrInvalidDevice)
	case f.Location.Building == "":
		return f, fmt.Errorf("%w: building is required", model.ErrInvalidDevice)
	}

	return f, nil
}
