package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/environment-monitor/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MessageHandler processes one message body. A nil error acknowledges the
// message; a retryable error requeues it; anything else dead-letters it.
type MessageHandler func(ctx context.Context, messageID string, body []byte) error

// Consumer handles message consumption from RabbitMQ
type Consumer struct {
	channel          *amqp.Channel
	queue            string
	prefetchCount    int
	timeout          time.Duration
	requeueDelay     time.Duration
	maxRedeliveries  int
	logger           *zap.Logger
	messageProcessor MessageHandler
	cancel           context.CancelFunc
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Connection       *Connection
	Queue            string
	DLQQueue         string
	Exchange         string
	RoutingKey       string
	PrefetchCount    int
	MessageTimeout   time.Duration
	RequeueDelay     time.Duration
	MaxRedeliveries  int
	Logger           *zap.Logger
	MessageProcessor MessageHandler
}

// NewConsumer declares the ingest topology and creates a consumer
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	ch, err := cfg.Connection.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := declareTopicExchange(ch, cfg.Exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Rejected messages are routed through the default exchange to the DLQ
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.DLQQueue,
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, args); err != nil {
		// A failed declare closes the channel, so the fallback needs a new one
		cfg.Logger.Warn("failed to declare queue with DLX, trying without DLX", zap.Error(err))
		if ch, err = cfg.Connection.Channel(); err != nil {
			return nil, fmt.Errorf("failed to create channel: %w", err)
		}
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to set QoS: %w", err)
		}
		if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to declare queue: %w", err)
		}
	}

	if _, err := ch.QueueDeclare(cfg.DLQQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Consumer{
		channel:          ch,
		queue:            cfg.Queue,
		prefetchCount:    cfg.PrefetchCount,
		timeout:          cfg.MessageTimeout,
		requeueDelay:     cfg.RequeueDelay,
		maxRedeliveries:  cfg.MaxRedeliveries,
		logger:           cfg.Logger,
		messageProcessor: cfg.MessageProcessor,
	}, nil
}

// Start starts consuming messages until ctx is cancelled or the channel closes
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Int("prefetch", c.prefetchCount),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("consumer context cancelled, stopping")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("message channel closed")
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	messageID := msg.MessageId
	if messageID == "" {
		messageID = uuid.NewString()
	}
	logger := c.logger.With(
		zap.String("request_id", messageID),
		zap.String("routing_key", msg.RoutingKey),
	)

	logger.Debug("received message from queue",
		zap.String("queue", c.queue),
		zap.Int("body_size", len(msg.Body)),
	)

	err := c.handle(ctx, messageID, msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error("failed to ACK message", zap.Error(ackErr))
		}
		return
	}

	requeue := model.Retryable(err)
	deliveries := deliveryCount(msg)
	if requeue && c.maxRedeliveries > 0 && deliveries >= c.maxRedeliveries {
		logger.Warn("redelivery limit reached, dead-lettering",
			zap.Int("delivery_count", deliveries),
			zap.Int("max_redeliveries", c.maxRedeliveries),
		)
		requeue = false
	}
	logger.Error("failed to process message",
		zap.Error(err),
		zap.String("kind", string(model.KindOf(err))),
		zap.Bool("requeue", requeue),
	)

	// Holding the delivery slows redelivery while storage is down
	if requeue {
		c.backoff(ctx)
	}

	// requeue=false sends the message to the DLQ
	if nackErr := msg.Nack(false, requeue); nackErr != nil {
		logger.Error("failed to NACK message", zap.Error(nackErr))
	}
}

// handle runs the processor under the per-message timeout
func (c *Consumer) handle(ctx context.Context, messageID string, body []byte) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.messageProcessor(ctx, messageID, body)
}

// backoff waits requeueDelay or until ctx is done
func (c *Consumer) backoff(ctx context.Context) {
	if c.requeueDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.requeueDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// deliveryCount reads the x-delivery-count header kept by quorum queues.
// Classic queues only flag a redelivery, which counts as one.
func deliveryCount(msg amqp.Delivery) int {
	switch v := msg.Headers["x-delivery-count"].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}

// RegisterLifecycle registers the consumer with Fx lifecycle
func (c *Consumer) RegisterLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// The start context expires with the start timeout, so
			// consumption runs on its own context.
			ctx, cancel := context.WithCancel(context.Background())
			c.cancel = cancel
			return c.Start(ctx)
		},
		OnStop: func(context.Context) error {
			if c.cancel != nil {
				c.cancel()
			}
			if err := c.channel.Close(); err != nil {
				c.logger.Error("failed to close consumer channel", zap.Error(err))
				return err
			}
			c.logger.Info("consumer stopped")
			return nil
		},
	})
}
