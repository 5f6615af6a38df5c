package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Event types published on the order queue.
const (
	TypeOrderCommitted     = "order.committed"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the JSON body of every published message.
type OrderEvent struct {
	Type           string    `json:"type"`
	SessionID      string    `json:"session_id"`
	OrderID        string    `json:"order_id"`
	Requester      string    `json:"requester"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          string    `json:"total"`
	Currency       string    `json:"currency"`
	ItemCount      int       `json:"item_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends order events to a durable queue through the default exchange.
type Publisher struct {
	ch       Channel
	queue    string
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

// NewPublisher wires a publisher on an open channel.
func NewPublisher(ch Channel, queue, currency string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, queue: queue, currency: currency, logger: logger, now: time.Now}
}

// Dial connects to the broker, declares the queue and returns a publisher plus a close
// function for the connection.
func Dial(uri, queue, currency string, logger *zap.Logger) (*Publisher, func() error, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	closer := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return NewPublisher(ch, queue, currency, logger), closer, nil
}

// OrderCommitted implements procurement.OrderObserver.
func (p *Publisher) OrderCommitted(ctx context.Context, sessionID string, order models.Order) error {
	return p.publish(ctx, p.event(TypeOrderCommitted, sessionID, order, ""))
}

// OrderStatusChanged implements procurement.OrderObserver.
func (p *Publisher) OrderStatusChanged(ctx context.Context, sessionID string, order models.Order, previous models.OrderStatus) error {
	return p.publish(ctx, p.event(TypeOrderStatusChanged, sessionID, order, previous))
}

func (p *Publisher) event(kind, sessionID string, order models.Order, previous models.OrderStatus) OrderEvent {
	return OrderEvent{
		Type:           kind,
		SessionID:      sessionID,
		OrderID:        order.ID,
		Requester:      order.Requester,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total.StringFixed(2),
		Currency:       p.currency,
		ItemCount:      len(order.Items),
		OccurredAt:     p.now().UTC(),
	}
}

func (p *Publisher) publish(ctx context.Context, evt OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type, err)
	}

	if err := p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Type:         evt.Type,
			Timestamp:    evt.OccurredAt,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish %s for %s: %w", evt.Type, evt.OrderID, err)
	}

	p.logger.Debug("order event published", zap.String("type", evt.Type), zap.String("order_id", evt.OrderID))
	return nil
}
