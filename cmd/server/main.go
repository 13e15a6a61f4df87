package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/septivank/environment-monitor/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const lifecycleTimeout = 30 * time.Second

func main() {
	loadEnvFile()

	app := fx.New(
		fx.StartTimeout(lifecycleTimeout),
		fx.StopTimeout(lifecycleTimeout),
		fx.Provide(
			config.Load,
			newLogger,
			ProvideStores,
			ProvideRegistry,
			ProvideResolver,
			ProvideMQConnection,
			ProvidePublisher,
			ProvideMetricObserver,
			ProvideIngestionService,
			ProvideAggregationService,
			ProvideProcessorService,
			ProvideMQTTListener,
			ProvideHealthChecks,
			ProvideHTTPServer,
		),
		fx.Invoke(
			seedDevices,
			startConsumer,
			startMQTTListener,
			startHTTPServer,
		),
	)

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Startup messages go through a bootstrap logger since the configured
	// one only exists inside the fx graph
	bootLogger, _ := zap.NewProduction()
	bootLogger.Info("starting application...", zap.Duration("timeout", lifecycleTimeout))

	startCtx, startCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if startCtx.Err() == context.DeadlineExceeded {
			bootLogger.Error("application start timeout: a dependency (database, RabbitMQ or MQTT broker) is probably not reachable, check the errors above")
		}
		bootLogger.Fatal("application failed to start", zap.Error(err))
	}

	// Wait for interrupt signal
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Println("error stopping app:", err)
	}
}

// loadEnvFile loads the first .env found in the working directory or one
// of its two parents. A missing file is fine in containers.
func loadEnvFile() {
	var envPaths []string
	if workDir, err := os.Getwd(); err == nil {
		parentDir := filepath.Dir(workDir)
		envPaths = append(envPaths,
			filepath.Join(workDir, ".env"),
			filepath.Join(parentDir, ".env"),
			filepath.Join(filepath.Dir(parentDir), ".env"),
		)
	} else {
		envPaths = append(envPaths, ".env")
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Printf("Loaded environment from: %s\n", envPath)
			return
		}
	}

	fmt.Println("No .env file found, using system environment variables")
}
