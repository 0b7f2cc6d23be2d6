package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pharmacy-api/internal/resilience"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial connects to the broker, retrying while it starts up.
func Dial(ctx context.Context, url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := resilience.Retry(ctx, 5, time.Second, func(context.Context) error {
		var err error
		conn, err = amqp.Dial(url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	return conn, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewAMQPPublisher(conn *amqp.Connection, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{conn: conn, queue: queue}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns the open channel, reopening it after a channel-level error.
// Callers hold p.mu, except the constructor.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(e.Type),
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	return p.ch.Close()
}

// PaymentHandler applies one payment update. A returned error requeues the
// message once; a second failure drops it.
type PaymentHandler func(ctx context.Context, u PaymentUpdate) error

// ConsumePaymentUpdates blocks, feeding queue deliveries to handle until ctx
// is done or the broker closes the channel.
func ConsumePaymentUpdates(ctx context.Context, conn *amqp.Connection, queue string, handle PaymentHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, queue); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	slog.Info("Waiting for payment updates", "queue", queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			handleDelivery(ctx, d, handle)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, handle PaymentHandler) {
	var update PaymentUpdate
	if err := json.Unmarshal(d.Body, &update); err != nil {
		slog.Error("Error decoding payment update", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, update); err != nil {
		slog.Error("Failed to apply payment update",
			"order_id", update.OrderID, "redelivered", d.Redelivered, "error", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	slog.Info("Applied payment update", "order_id", update.OrderID, "status", update.PaymentStatus)
	_ = d.Ack(false)
}
