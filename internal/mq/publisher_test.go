package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

func TestMetricAccepted_PublishesEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{
		channel:    ch,
		exchange:   "environment-monitor.events.exchange",
		routingKey: "metric.accepted",
		logger:     zaptest.NewLogger(t),
	}

	ts := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	metric := model.Metric{
		ID:          7,
		DeviceID:    "mqtt-sensor-001",
		Temperature: 21.5,
		Humidity:    44,
		Timestamp:   ts,
		ReceivedAt:  ts.Add(time.Second),
		Location:    model.Location{Room: "A101", Department: "Informatica", Floor: "Piso1", Building: "EdificioII"},
	}
	require.NoError(t, p.MetricAccepted(context.Background(), metric))

	assert.Equal(t, "environment-monitor.events.exchange", ch.exchange)
	assert.Equal(t, "metric.accepted", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var event MetricAcceptedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, event.EventID, ch.msg.MessageId)
	assert.Equal(t, int64(7), event.MetricID)
	assert.Equal(t, "A101", event.Room)
	assert.Equal(t, "EdificioII", event.Building)
	assert.True(t, event.Timestamp.Equal(ts))
}

func TestMetricAccepted_PublishError(t *testing.T) {
	p := &Publisher{
		channel: &fakeChannel{err: errors.New("channel closed")},
		logger:  zaptest.NewLogger(t),
	}

	err := p.MetricAccepted(context.Background(), model.Metric{ID: 1})
	assert.ErrorContains(t, err, "failed to publish event")
}
