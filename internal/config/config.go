package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	Storage     StorageConfig
	RabbitMQ    RabbitMQConfig
	MQTT        MQTTConfig
	Query       QueryConfig
	SeedDevices bool
}

// HTTPConfig holds REST adapter settings
type HTTPConfig struct {
	Addr string
}

// StorageConfig selects and configures the device and metric stores
type StorageConfig struct {
	Driver           string
	URL              string
	MaxConns         int
	ApplySchema      bool
	StatementTimeout time.Duration
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	Enabled          bool
	URL              string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	EventsExchange   string
	EventsRoutingKey string
	DLQQueue         string
	PrefetchCount    int
	MessageTimeout   time.Duration
	RequeueDelay     time.Duration
	MaxRedeliveries  int
}

// MQTTConfig holds MQTT broker and topic settings
type MQTTConfig struct {
	Enabled          bool
	BrokerURL        string
	ClientID         string
	Username         string
	Password         string
	Topic            string
	QoS              int
	ErrorTopicPrefix string
}

// QueryConfig holds aggregation query settings
type QueryConfig struct {
	DefaultWindow time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "environment-monitor"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			Driver:           strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         getEnvAsInt("DATABASE_MAX_CONNS", 10),
			ApplySchema:      getEnvAsBool("DATABASE_APPLY_SCHEMA", true),
			StatementTimeout: getEnvAsDuration("DATABASE_STATEMENT_TIMEOUT", 5*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:          getEnvAsBool("RABBITMQ_ENABLED", false),
			URL:              getEnv("RABBITMQ_URL", ""),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "environment-monitor.ingest.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "environment-monitor.ingest.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "sensor.reading.raw"),
			EventsExchange:   getEnv("RABBITMQ_EVENTS_EXCHANGE", "environment-monitor.events.exchange"),
			EventsRoutingKey: getEnv("RABBITMQ_EVENTS_ROUTING_KEY", "metric.accepted"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "environment-monitor.ingest.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
			MessageTimeout:   getEnvAsDuration("RABBITMQ_MESSAGE_TIMEOUT", 30*time.Second),
			RequeueDelay:     getEnvAsDuration("RABBITMQ_REQUEUE_DELAY", time.Second),
			MaxRedeliveries:  getEnvAsInt("RABBITMQ_MAX_REDELIVERIES", 5),
		},
		MQTT: MQTTConfig{
			Enabled:          getEnvAsBool("MQTT_ENABLED", false),
			BrokerURL:        getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
			ClientID:         getEnv("MQTT_CLIENT_ID", "environment-monitor"),
			Username:         getEnv("MQTT_USERNAME", ""),
			Password:         getEnv("MQTT_PASSWORD", ""),
			Topic:            getEnv("MQTT_TOPIC", "uevora/sensors/+"),
			QoS:              getEnvAsInt("MQTT_QOS", 1),
			ErrorTopicPrefix: getEnv("MQTT_ERROR_TOPIC_PREFIX", "uevora/errors"),
		},
		Query: QueryConfig{
			DefaultWindow: getEnvAsDuration("QUERY_DEFAULT_WINDOW", 24*time.Hour),
		},
		SeedDevices: getEnvAsBool("SEED_DEVICES", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Storage.URL == "" {
			return fmt.Errorf("DATABASE_URL is required but not set in environment variables")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage.Driver)
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL is required when RABBITMQ_ENABLED is set")
	}
	if c.RabbitMQ.MessageTimeout <= 0 {
		return fmt.Errorf("RABBITMQ_MESSAGE_TIMEOUT must be positive, got %s", c.RabbitMQ.MessageTimeout)
	}

	if c.MQTT.Enabled && c.MQTT.BrokerURL == "" {
		return fmt.Errorf("MQTT_BROKER_URL is required when MQTT_ENABLED is set")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}

	if c.Query.DefaultWindow <= 0 {
		return fmt.Errorf("QUERY_DEFAULT_WINDOW must be positive, got %s", c.Query.DefaultWindow)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
