// Package notify publishes order lifecycle events to RabbitMQ.
package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/restaurant-mis/internal/domain/order"
)

// Routing keys of published events.
const (
	KeyOrderCreated  = "order.created"
	KeyStatusChanged = "order.status_changed"
)

const publishTimeout = 10 * time.Second

var _ order.Notifier = (*Publisher)(nil)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends order events to a topic exchange as JSON messages.
type Publisher struct {
	ch       Channel
	exchange string
	now      func() time.Time
}

// NewPublisher returns a Publisher writing to exchange through ch.
func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, now: time.Now}
}

// Dial connects to the broker at url and declares exchange as a durable
// topic exchange. The returned close function shuts the connection down.
func Dial(url, exchange string) (*Publisher, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return NewPublisher(ch, exchange), conn.Close, nil
}

// OrderCreated publishes an order.created event.
func (p *Publisher) OrderCreated(ctx context.Context, o order.Order) error {
	return p.publish(ctx, KeyOrderCreated, encodeEvent(KeyOrderCreated, o, ""))
}

// StatusChanged publishes an order.status_changed event.
func (p *Publisher) StatusChanged(ctx context.Context, o order.Order, prev order.Status) error {
	return p.publish(ctx, KeyStatusChanged, encodeEvent(KeyStatusChanged, o, prev))
}

func (p *Publisher) publish(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return errors.Wrapf(err, "publish %s", key)
	}
	return nil
}

func encodeEvent(event string, o order.Order, prev order.Status) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("event", func(e *jx.Encoder) { e.Str(event) })
		e.Field("order_id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("order_number", func(e *jx.Encoder) { e.Str(o.OrderNumber) })
		e.Field("customer_name", func(e *jx.Encoder) { e.Str(o.Customer.Name) })
		e.Field("customer_phone", func(e *jx.Encoder) { e.Str(o.Customer.Phone) })
		e.Field("items", func(e *jx.Encoder) { e.Int(o.ItemCount()) })
		e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(o.Total.StringFixed(2))) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		if prev != "" {
			e.Field("previous_status", func(e *jx.Encoder) { e.Str(string(prev)) })
		}
		e.Field("date", func(e *jx.Encoder) { e.Str(o.Date.Format(time.RFC3339)) })
	})
	return append([]byte(nil), e.Bytes()...)
}
