package seed_test

import (
	"context"
	"testing"

	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/registry"
	"github.com/septivank/environment-monitor/internal/seed"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSeed_EmptyRegistry(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reg := registry.NewRegistry(store.NewMemoryDeviceStore(), logger, nil)
	ctx := context.Background()

	n, err := seed.Seed(ctx, reg, seed.DefaultDevices, logger)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	mqtt, err := reg.List(ctx, model.DeviceFilter{Protocol: model.ProtocolMQTT})
	require.NoError(t, err)
	assert.Len(t, mqtt, 3)

	d, err := reg.Get(ctx, "grpc-gateway-001")
	require.NoError(t, err)
	assert.Equal(t, "EdificioIV", d.Building)
}

func TestSeed_SkipsPopulatedRegistry(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reg := registry.NewRegistry(store.NewMemoryDeviceStore(), logger, nil)
	ctx := context.Background()

	_, err := reg.Register(ctx, seed.DefaultDevices[0])
	require.NoError(t, err)

	n, err := seed.Seed(ctx, reg, seed.DefaultDevices, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := reg.List(ctx, model.DeviceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
