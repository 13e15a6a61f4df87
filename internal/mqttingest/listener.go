// Package mqttingest feeds readings published on MQTT topics into the
// ingestion pipeline and reports rejections back on an error topic.
package mqttingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/septivank/environment-monitor/internal/config"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Rejection is published to <errorTopicPrefix>/<deviceId> when a reading
// is not stored
type Rejection struct {
	Kind      model.Kind `json:"kind"`
	Message   string     `json:"message"`
	DeviceID  string     `json:"device_id"`
	Timestamp time.Time  `json:"timestamp"`
}

// Listener subscribes to the sensor topic and ingests every message
type Listener struct {
	cfg      config.MQTTConfig
	ingester service.ReadingIngester
	timeout  time.Duration
	logger   *zap.Logger
	client   mqtt.Client
}

// NewListener builds the MQTT client. Nothing connects until Start.
func NewListener(cfg config.MQTTConfig, ingester service.ReadingIngester, timeout time.Duration, logger *zap.Logger) *Listener {
	l := &Listener{
		cfg:      cfg,
		ingester: ingester,
		timeout:  timeout,
		logger:   logger.With(zap.String("component", "mqtt")),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = func(c mqtt.Client) {
		l.logger.Info("mqtt connected, subscribing", zap.String("topic", cfg.Topic))
		if token := c.Subscribe(cfg.Topic, byte(cfg.QoS), l.onMessage); token.Wait() && token.Error() != nil {
			l.logger.Error("mqtt subscribe failed", zap.Error(token.Error()), zap.String("topic", cfg.Topic))
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.logger.Error("mqtt connection lost", zap.Error(err))
	}

	l.client = mqtt.NewClient(opts)
	return l
}

// Start connects in the background; the client keeps retrying until the
// broker is reachable
func (l *Listener) Start() {
	token := l.client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			l.logger.Error("mqtt connect failed", zap.Error(token.Error()))
		}
	}()
}

// Stop disconnects, waiting briefly for in-flight work
func (l *Listener) Stop() {
	l.client.Disconnect(250)
	l.logger.Info("mqtt listener stopped")
}

// IsConnected reports broker connectivity
func (l *Listener) IsConnected() bool {
	return l.client.IsConnected()
}

// RegisterLifecycle registers the listener with Fx lifecycle
func (l *Listener) RegisterLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			l.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			l.Stop()
			return nil
		},
	})
}

func (l *Listener) onMessage(_ mqtt.Client, m mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	rejection := l.handle(ctx, m.Topic(), m.Payload())
	if rejection != nil {
		l.publishRejection(*rejection)
	}
}

// handle ingests one payload and returns the rejection to report, if any
func (l *Listener) handle(ctx context.Context, topic string, payload []byte) *Rejection {
	topicDevice := deviceFromTopic(topic)

	var raw model.RawReading
	if err := json.Unmarshal(payload, &raw); err != nil {
		l.logger.Warn("undecodable mqtt payload", zap.String("topic", topic), zap.Error(err))
		return &Rejection{
			Kind:      model.KindMalformedReading,
			Message:   fmt.Sprintf("%v: %v", model.ErrMalformedReading, err),
			DeviceID:  topicDevice,
			Timestamp: time.Now().UTC(),
		}
	}
	if strings.TrimSpace(raw.DeviceID) == "" {
		raw.DeviceID = topicDevice
	}

	metric, err := l.ingester.Ingest(ctx, raw)
	if err != nil {
		l.logger.Warn("mqtt reading rejected",
			zap.String("topic", topic),
			zap.String("device_id", raw.DeviceID),
			zap.Error(err),
		)
		return &Rejection{
			Kind:      model.KindOf(err),
			Message:   err.Error(),
			DeviceID:  raw.DeviceID,
			Timestamp: time.Now().UTC(),
		}
	}

	l.logger.Debug("mqtt reading stored",
		zap.String("device_id", metric.DeviceID),
		zap.Int64("metric_id", metric.ID),
	)
	return nil
}

func (l *Listener) publishRejection(r Rejection) {
	if !l.client.IsConnected() {
		return
	}

	body, err := json.Marshal(r)
	if err != nil {
		l.logger.Error("failed to marshal rejection", zap.Error(err))
		return
	}

	deviceID := r.DeviceID
	if deviceID == "" {
		deviceID = "unknown"
	}
	topic := fmt.Sprintf("%s/%s", strings.TrimSuffix(l.cfg.ErrorTopicPrefix, "/"), deviceID)

	token := l.client.Publish(topic, byte(l.cfg.QoS), false, body)
	if token.Wait() && token.Error() != nil {
		l.logger.Error("failed to publish rejection", zap.Error(token.Error()), zap.String("topic", topic))
	}
}

// deviceFromTopic returns the last topic segment, e.g. uevora/sensors/dev-1 -> dev-1
func deviceFromTopic(topic string) string {
	topic = strings.TrimSuffix(topic, "/")
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
