package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange.  It keeps one connection and channel open and redials
// once when a publish fails.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, log: log}
}

func (p *AMQPPublisher) ensure() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := p.ensure(); err != nil {
			lastErr = err
			continue
		}
		if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
			lastErr = err
			p.reset()
			continue
		}
		return nil
	}
	p.log.Warn("event publish failed", zap.String("type", ev.Type), zap.String("event_id", ev.ID), zap.Error(lastErr))
	return lastErr
}

// Close shuts the connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// InlinePublisher delivers events straight to a handler in the calling
// goroutine.  Handler errors are logged, never returned, so a failing
// notification does not fail the request that caused it.
type InlinePublisher struct {
	handler Handler
	log     *zap.Logger
}

func NewInlinePublisher(h Handler, log *zap.Logger) *InlinePublisher {
	return &InlinePublisher{handler: h, log: log}
}

func (p *InlinePublisher) Publish(ctx context.Context, ev Event) error {
	if err := p.handler.Handle(context.WithoutCancel(ctx), ev); err != nil {
		p.log.Warn("inline event handler failed", zap.String("type", ev.Type), zap.String("event_id", ev.ID), zap.Error(err))
	}
	return nil
}
