package config_test

import (
	"testing"
	"time"

	"github.com/septivank/environment-monitor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "environment-monitor", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Query.DefaultWindow)
	assert.Equal(t, "uevora/sensors/+", cfg.MQTT.Topic)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RabbitMQ.MessageTimeout)
	assert.Equal(t, time.Second, cfg.RabbitMQ.RequeueDelay)
	assert.Equal(t, 5, cfg.RabbitMQ.MaxRedeliveries)
	assert.False(t, cfg.SeedDevices)
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_RabbitMQRequiresURLWhenEnabled(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("RABBITMQ_URL", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "RABBITMQ_URL")
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("QUERY_DEFAULT_WINDOW", "6h")
	t.Setenv("SEED_DEVICES", "true")
	t.Setenv("RABBITMQ_PREFETCH", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.Query.DefaultWindow)
	assert.True(t, cfg.SeedDevices)
	assert.Equal(t, 10, cfg.RabbitMQ.PrefetchCount)
}

func TestLoad_MessageTimeoutMustBePositive(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RABBITMQ_MESSAGE_TIMEOUT", "0s")

	_, err := config.Load()
	assert.ErrorContains(t, err, "RABBITMQ_MESSAGE_TIMEOUT")
}
