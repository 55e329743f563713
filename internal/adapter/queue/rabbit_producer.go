package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/re-trade/checkout-api/internal/usecase"
)

// deferredPublisher is the slice of amqp.Channel that Publish needs.
type deferredPublisher interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string,
		mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
}

// RabbitProducer publishes checkout lifecycle events on a topic exchange.
// Implements usecase.EventPublisher.
type RabbitProducer struct {
	ch       *amqp.Channel
	pub      deferredPublisher
	exchange string
}

// NewRabbitProducer declares the exchange once at startup and enables
// publisher confirms.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	if exchange == "" {
		exchange = "checkout.events"
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitProducer{ch: ch, pub: ch, exchange: exchange}, nil
}

// DeclareCallbackQueue binds the payment-callback queue to the exchange so
// gateway callbacks routed at payment.callback.* land in it.
func (p *RabbitProducer) DeclareCallbackQueue(queueName string) error {
	q, err := p.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.ch.QueueBind(q.Name, "payment.callback.*", p.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

// Publish sends one persistent JSON event and waits for the broker's
// confirmation.
func (p *RabbitProducer) Publish(ctx context.Context, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}
	conf, err := p.pub.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	// conf is nil when the channel is not in confirm mode
	if conf != nil {
		acked, err := conf.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("await confirm: %w", err)
		}
		if !acked {
			return fmt.Errorf("broker nacked publish on %s", routingKey)
		}
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
