// Package seed registers the demo campus devices on an empty registry.
package seed

import (
	"context"
	"errors"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"go.uber.org/zap"
)

// DefaultDevices are the sensors of the demo deployment
var DefaultDevices = []model.Device{
	device("rest-device-001", model.ProtocolREST, "A101", "Informatica", "Piso1", "EdificioII"),
	device("rest-device-002", model.ProtocolREST, "B202", "Matematica", "Piso2", "EdificioI"),
	device("rest-device-003", model.ProtocolREST, "C303", "Fisica", "Piso3", "EdificioIII"),
	device("mqtt-sensor-001", model.ProtocolMQTT, "A101", "Informatica", "Piso1", "EdificioII"),
	device("mqtt-sensor-002", model.ProtocolMQTT, "B205", "Matematica", "Piso2", "EdificioI"),
	device("mqtt-sensor-003", model.ProtocolMQTT, "C103", "Fisica", "Piso1", "EdificioIII"),
	device("grpc-gateway-001", model.ProtocolGRPC, "D301", "Engenharia", "Piso3", "EdificioIV"),
	device("grpc-gateway-002", model.ProtocolGRPC, "E102", "Quimica", "Piso1", "EdificioV"),
}

func device(id string, p model.Protocol, room, department, floor, building string) model.Device {
	return model.Device{
		ID:       id,
		Protocol: p,
		Location: model.Location{
			Room:       room,
			Department: department,
			Floor:      floor,
			Building:   building,
		},
		Status: model.StatusActive,
	}
}

// Seed registers devices when the registry holds none. It returns the number
// of devices created.
func Seed(ctx context.Context, reg *registry.Registry, devices []model.Device, logger *zap.Logger) (int, error) {
	existing, err := reg.List(ctx, model.DeviceFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logger.Info("registry not empty, skipping seed", zap.Int("devices", len(existing)))
		return 0, nil
	}

	created := 0
	for _, d := range devices {
		if _, err := reg.Register(ctx, d); err != nil {
			// Another replica may be seeding concurrently
			if errors.Is(err, model.ErrAlreadyExists) {
				continue
			}
			return created, err
		}
		created++
	}

	logger.Info("seeded devices", zap.Int("created", created))
	return created, nil
}
