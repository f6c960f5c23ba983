package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"commerce-sim/config"
	"commerce-sim/logger"
	"commerce-sim/models"
	"commerce-sim/services"
)

// ErrMalformedEvent marks a message that can never be processed and should
// go straight to the dead-letter queue.
var ErrMalformedEvent = errors.New("malformed order event")

// OrderProcessor is the part of the order service the consumer drives.
type OrderProcessor interface {
	CheckPayment(ctx context.Context, id string) (bool, error)
	RecomputeStatus(ctx context.Context, id string) (*models.Order, error)
}

// StartOrderConsumer consumes the order queue and its dead-letter queue until
// ctx is done.
func StartOrderConsumer(ctx context.Context, ch *amqp.Channel, cfg *config.Config, orders OrderProcessor) error {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"commerce-sim", // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(ctx, orders, msg)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"commerce-sim-dlq", // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register DLQ consumer")
		return nil
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
	return nil
}

func processOrderMessage(ctx context.Context, orders OrderProcessor, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("message_id", msg.MessageId).Msg("Recovered from panic in message processing")
			_ = msg.Nack(false, false)
		}
	}()

	err := handleEvent(ctx, orders, msg.Body)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Msg("Failed to ack order event")
		}
	case errors.Is(err, ErrMalformedEvent), errors.Is(err, services.ErrNotFound):
		log.Warn().Err(err).Str("body", string(msg.Body)).Msg("Dropping order event")
		_ = msg.Nack(false, false)
	default:
		// First failure is retried once; a redelivered message is dead-lettered.
		log.Error().Err(err).Bool("redelivered", msg.Redelivered).Msg("Failed to process order event")
		_ = msg.Nack(false, !msg.Redelivered)
	}
}

// handleEvent decodes one order event and runs its handler.
func handleEvent(ctx context.Context, orders OrderProcessor, body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.OrderID == "" || event.Type == "" {
		return fmt.Errorf("%w: missing order_id or type", ErrMalformedEvent)
	}

	l := log.With().Str("order_id", event.OrderID).Str("event", event.Type).Logger()
	ctx = logger.WithContext(ctx, &l)
	l.Debug().Msg("Processing order event")

	switch event.Type {
	case models.EventPaymentCheck:
		cancelled, err := orders.CheckPayment(ctx, event.OrderID)
		if err != nil {
			return err
		}
		l.Info().Bool("cancelled", cancelled).Msg("Payment check complete")
	case models.EventStatusRecompute:
		order, err := orders.RecomputeStatus(ctx, event.OrderID)
		if err != nil {
			return err
		}
		l.Info().Str("financial_status", string(order.FinancialStatus)).Msg("Order status recomputed")
	default:
		// Lifecycle notifications are informational for this service.
		l.Info().Str("financial_status", string(event.FinancialStatus)).Msg("Order event received")
	}
	return nil
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Warn().
		Str("message_id", msg.MessageId).
		Str("type", msg.Type).
		Str("body", string(msg.Body)).
		Msg("Received dead letter")
	if err := msg.Ack(false); err != nil {
		log.Error().Err(err).Msg("Failed to ack dead letter")
	}
}
