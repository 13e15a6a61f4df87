package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/environment-monitor/internal/model"
	"go.uber.org/zap"
)

// publishChannel is the part of *amqp.Channel the publisher uses
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher emits metric.accepted events after each stored metric
type Publisher struct {
	mu         sync.Mutex
	channel    publishChannel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher creates a new RabbitMQ publisher on its own channel
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := declareTopicExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

// MetricAcceptedEvent is published for every stored metric
type MetricAcceptedEvent struct {
	EventID     string    `json:"event_id"`
	MetricID    int64     `json:"metric_id"`
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
	ReceivedAt  time.Time `json:"received_at"`
	Room        string    `json:"room"`
	Department  string    `json:"department"`
	Floor       string    `json:"floor"`
	Building    string    `json:"building"`
}

// NewMetricAcceptedEvent builds the event for a stored metric
func NewMetricAcceptedEvent(metric model.Metric) MetricAcceptedEvent {
	return MetricAcceptedEvent{
		EventID:     uuid.NewString(),
		MetricID:    metric.ID,
		DeviceID:    metric.DeviceID,
		Temperature: metric.Temperature,
		Humidity:    metric.Humidity,
		Timestamp:   metric.Timestamp,
		ReceivedAt:  metric.ReceivedAt,
		Room:        metric.Room,
		Department:  metric.Department,
		Floor:       metric.Floor,
		Building:    metric.Building,
	}
}

// MetricAccepted publishes a metric.accepted event for metric
func (p *Publisher) MetricAccepted(ctx context.Context, metric model.Metric) error {
	return p.PublishEvent(ctx, NewMetricAcceptedEvent(metric))
}

// PublishEvent publishes event with the configured routing key
func (p *Publisher) PublishEvent(ctx context.Context, event MetricAcceptedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.ReceivedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published metric accepted event",
		zap.String("routing_key", p.routingKey),
		zap.String("event_id", event.EventID),
		zap.Int64("metric_id", event.MetricID),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
