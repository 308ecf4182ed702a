package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

var errNotConfirmed = errs.New("broker did not confirm the message")

// AMQPPublisher publishes persistent JSON messages to a topic exchange and
// waits for the broker's confirmation. The channel is reopened when the
// broker closes it.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(cfg config.AMQPConfig) *AMQPPublisher {
	return &AMQPPublisher{url: cfg.URL, exchange: cfg.Exchange}
}

// Publish sends body under routing key topic. id becomes the message id so
// consumers can drop redeliveries.
func (p *AMQPPublisher) Publish(ctx context.Context, topic, id string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange, // exchange
		topic,      // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    id,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		p.resetLocked()
		return errs.Wrap(err, "failed to publish")
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		p.resetLocked()
		return errs.Wrap(err, "failed to wait for publish confirmation")
	}
	if !acked {
		return errNotConfirmed
	}
	return nil
}

func (p *AMQPPublisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, errs.Wrap(err, "failed to connect to broker")
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, errs.Wrap(err, "failed to open channel")
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		_ = ch.Close()
		return nil, errs.Wrap(err, "failed to declare exchange")
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, errs.Wrap(err, "failed to enable publisher confirms")
	}

	slog.Info("broker channel opened", "exchange", p.exchange)
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}
