package main

import (
	"context"
	"fmt"
	"time"

	"github.com/septivank/environment-monitor/internal/api"
	"github.com/septivank/environment-monitor/internal/config"
	"github.com/septivank/environment-monitor/internal/db"
	"github.com/septivank/environment-monitor/internal/mq"
	"github.com/septivank/environment-monitor/internal/mqttingest"
	"github.com/septivank/environment-monitor/internal/registry"
	"github.com/septivank/environment-monitor/internal/repository"
	"github.com/septivank/environment-monitor/internal/seed"
	"github.com/septivank/environment-monitor/internal/service"
	"github.com/septivank/environment-monitor/internal/store"
	"github.com/septivank/environment-monitor/internal/window"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Stores are the persistence backends selected by STORAGE_DRIVER
type Stores struct {
	fx.Out

	Devices store.DeviceStore
	Metrics store.MetricStore
	Pinger  store.Pinger
}

// ProvideStores creates the Postgres repositories, or in-memory stores when
// STORAGE_DRIVER=memory
func ProvideStores(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (Stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		devices := store.NewMemoryDeviceStore()
		return Stores{Devices: devices, Metrics: store.NewMemoryMetricStore(), Pinger: devices}, nil
	}

	pool, err := db.NewPool(lc, logger, db.PoolConfig{
		URL:         cfg.Storage.URL,
		MaxConns:    int32(cfg.Storage.MaxConns),
		ApplySchema: cfg.Storage.ApplySchema,
	})
	if err != nil {
		return Stores{}, err
	}

	devices := repository.NewDeviceRepository(pool)
	return Stores{Devices: devices, Metrics: repository.NewMetricRepository(pool), Pinger: devices}, nil
}

// ProvideRegistry creates the device registry
func ProvideRegistry(devices store.DeviceStore, logger *zap.Logger) *registry.Registry {
	return registry.NewRegistry(devices, logger, time.Now)
}

// ProvideResolver creates the query window resolver
func ProvideResolver(cfg *config.Config) *window.Resolver {
	return window.NewResolver(cfg.Query.DefaultWindow, time.Now)
}

// ProvideMQConnection connects to RabbitMQ. It yields nil when RabbitMQ is
// disabled.
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	if !cfg.RabbitMQ.Enabled {
		return nil, nil
	}
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the metric.accepted event publisher, nil without
// a RabbitMQ connection
func ProvidePublisher(lc fx.Lifecycle, conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	if conn == nil {
		return nil, nil
	}
	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.EventsRoutingKey, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

// ProvideMetricObserver exposes the publisher as the ingestion observer.
// A nil publisher must become a nil interface, not a typed nil.
func ProvideMetricObserver(publisher *mq.Publisher) service.MetricObserver {
	if publisher == nil {
		return nil
	}
	return publisher
}

// ProvideIngestionService creates the ingestion pipeline
func ProvideIngestionService(
	reg *registry.Registry,
	metrics store.MetricStore,
	observer service.MetricObserver,
	logger *zap.Logger,
) service.ReadingIngester {
	return service.NewIngestionService(reg, metrics, observer, logger, time.Now)
}

// ProvideAggregationService creates the query service
func ProvideAggregationService(metrics store.MetricStore, resolver *window.Resolver, logger *zap.Logger) *service.AggregationService {
	return service.NewAggregationService(metrics, resolver, logger)
}

// ProvideProcessorService creates a new processor service instance
func ProvideProcessorService(ingester service.ReadingIngester, logger *zap.Logger) *service.ProcessorService {
	return service.NewProcessorService(ingester, logger)
}

// ProvideMQTTListener creates the MQTT listener, nil when MQTT is disabled
func ProvideMQTTListener(cfg *config.Config, ingester service.ReadingIngester, logger *zap.Logger) *mqttingest.Listener {
	if !cfg.MQTT.Enabled {
		return nil
	}
	return mqttingest.NewListener(cfg.MQTT, ingester, cfg.Storage.StatementTimeout, logger)
}

// ProvideHealthChecks collects a check for every enabled dependency
func ProvideHealthChecks(pinger store.Pinger, conn *mq.Connection, listener *mqttingest.Listener) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"storage": pinger.Ping,
	}
	if conn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return fmt.Errorf("connection closed")
			}
			return nil
		}
	}
	if listener != nil {
		checks["mqtt"] = func(context.Context) error {
			if !listener.IsConnected() {
				return fmt.Errorf("not connected")
			}
			return nil
		}
	}
	return checks
}

// ProvideHTTPServer builds the REST adapter
func ProvideHTTPServer(
	cfg *config.Config,
	reg *registry.Registry,
	ingester service.ReadingIngester,
	query *service.AggregationService,
	checks map[string]api.HealthCheck,
	logger *zap.Logger,
) *api.Server {
	timeout := cfg.Storage.StatementTimeout
	router := api.NewRouter(logger,
		api.NewDeviceController(reg, timeout, logger),
		api.NewMetricController(ingester, query, timeout, logger),
		api.NewHealthController(checks, timeout),
	)
	return api.NewServer(cfg.HTTP.Addr, router, logger)
}

func seedDevices(lc fx.Lifecycle, cfg *config.Config, reg *registry.Registry, logger *zap.Logger) {
	if !cfg.SeedDevices {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := seed.Seed(ctx, reg, seed.DefaultDevices, logger)
			return err
		},
	})
}

func startConsumer(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	processor *service.ProcessorService,
) error {
	if conn == nil {
		logger.Info("rabbitmq disabled, consumer not started")
		return nil
	}

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:       conn,
		Queue:            cfg.RabbitMQ.IngestQueue,
		DLQQueue:         cfg.RabbitMQ.DLQQueue,
		Exchange:         cfg.RabbitMQ.IngestExchange,
		RoutingKey:       cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount:    cfg.RabbitMQ.PrefetchCount,
		MessageTimeout:   cfg.RabbitMQ.MessageTimeout,
		RequeueDelay:     cfg.RabbitMQ.RequeueDelay,
		MaxRedeliveries:  cfg.RabbitMQ.MaxRedeliveries,
		Logger:           logger,
		MessageProcessor: processor.ProcessMessage,
	})
	if err != nil {
		return err
	}

	consumer.RegisterLifecycle(lc)
	return nil
}

func startMQTTListener(lc fx.Lifecycle, listener *mqttingest.Listener) {
	if listener == nil {
		return
	}
	listener.RegisterLifecycle(lc)
}

func startHTTPServer(lc fx.Lifecycle, server *api.Server) {
	server.RegisterLifecycle(lc)
}
