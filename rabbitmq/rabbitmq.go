package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"commerce-sim/config"
	"commerce-sim/models"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	delayed bool
}

// ErrDelayUnsupported is returned by PublishDelayed when the broker has no
// delayed-message exchange.
var ErrDelayUnsupported = errors.New("delayed exchange not available")

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.Cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the order exchange, the prioritized order queue with
// its dead-letter route, and the delayed exchange used for payment checks.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, r.deadLetterExchange(), false, nil); err != nil {
		return err
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	// Requires the rabbitmq_delayed_message_exchange plugin.
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.DelayExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		log.Warn().Err(err).Str("exchange", r.Cfg.DelayExchange).Msg("Delayed exchange not supported, payment checks disabled")
		// A failed declare closes the channel.
		ch, chErr := r.Conn.Channel()
		if chErr != nil {
			return chErr
		}
		r.Channel = ch
	} else {
		r.delayed = true
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.OrderExchange, false, nil); err != nil {
		return err
	}
	if !r.delayed {
		return nil
	}
	// Delayed messages are routed by queue name through the direct delay type.
	return r.Channel.QueueBind(r.Cfg.OrderQueue, r.Cfg.OrderQueue, r.Cfg.DelayExchange, false, nil)
}

// DelaySupported reports whether SetupQueues found the delayed-message
// exchange.
func (r *RabbitMQ) DelaySupported() bool {
	return r.delayed
}

// Publish sends event to the order exchange at the given priority.
func (r *RabbitMQ) Publish(ctx context.Context, event models.OrderEvent, priority uint8) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	msg.Priority = min(priority, uint8(r.Cfg.MaxPriority))
	return r.Channel.PublishWithContext(ctx, r.Cfg.OrderExchange, "", false, false, msg)
}

// PublishDelayed sends event through the delayed exchange; it reaches the
// order queue after delay.
func (r *RabbitMQ) PublishDelayed(ctx context.Context, event models.OrderEvent, delay time.Duration) error {
	if !r.delayed {
		return ErrDelayUnsupported
	}
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	msg.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
	return r.Channel.PublishWithContext(ctx, r.Cfg.DelayExchange, r.Cfg.OrderQueue, false, false, msg)
}

func newPublishing(event models.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode order event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Occurred,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Body:         body,
	}, nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}
}
