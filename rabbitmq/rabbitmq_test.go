package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-sim/config"
	"commerce-sim/models"
)

func TestNewPublishing(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := models.OrderEvent{
		ID:              "evt-1",
		OrderID:         "order-1",
		Type:            models.EventCreated,
		FinancialStatus: models.FinancialPaid,
		Total:           "10.00",
		Occurred:        at,
	}

	msg, err := newPublishing(event)
	require.NoError(t, err)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, models.EventCreated, msg.Type)
	assert.Equal(t, at, msg.Timestamp)

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "order-1", decoded.OrderID)
	assert.Equal(t, models.FinancialPaid, decoded.FinancialStatus)
}

func TestPublishDelayedWithoutPlugin(t *testing.T) {
	r := &RabbitMQ{Cfg: &config.Config{}}
	err := r.PublishDelayed(context.Background(), models.OrderEvent{}, time.Minute)
	assert.ErrorIs(t, err, ErrDelayUnsupported)
}
