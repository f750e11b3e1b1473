package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
)

// Service turns carts into orders and applies status changes, notifying
// subscribers of both.
type Service struct {
	orders   *Repository
	notifier Notifier

	checkouts metric.Int64Counter
	revenue   metric.Float64Counter
	changes   metric.Int64Counter
}

// NewService creates an order Service. A nil notifier disables events.
func NewService(orders *Repository, notifier Notifier, meter metric.Meter) (*Service, error) {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Service{orders: orders, notifier: notifier}

	var err error
	if s.checkouts, err = meter.Int64Counter("mis.orders.checkouts",
		metric.WithDescription("Orders created from carts"),
	); err != nil {
		return nil, errors.Wrap(err, "create checkouts counter")
	}
	if s.revenue, err = meter.Float64Counter("mis.orders.checkout_amount",
		metric.WithDescription("Sum of checked out order totals"),
	); err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}
	if s.changes, err = meter.Int64Counter("mis.orders.status_changes",
		metric.WithDescription("Order status updates"),
	); err != nil {
		return nil, errors.Wrap(err, "create status counter")
	}
	return s, nil
}

// Checkout validates the cart's customer details, saves its lines as a new
// pending order, and clears the cart. The cart is left untouched on error.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart) (*Order, error) {
	var o *Order
	err := c.Checkout(func(info customer.Info, lines []cart.Line) error {
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if err := customer.Validate(info); err != nil {
			return err
		}
		saved, err := s.orders.SaveOrder(ctx, info, lines, cart.Total(lines).Round(2))
		if err != nil {
			return errors.Wrap(err, "save order")
		}
		o = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.checkouts.Add(ctx, 1)
	s.revenue.Add(ctx, o.Total.InexactFloat64())

	lg := zctx.From(ctx)
	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", o.ItemCount()),
		zap.String("total", o.Total.StringFixed(2)),
	)
	if err := s.notifier.OrderCreated(ctx, *o); err != nil {
		lg.Warn("Order created event not delivered", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

// UpdateStatus sets the status of the order with id and emits a change event.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, prev, err := s.orders.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.changes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))

	lg := zctx.From(ctx)
	lg.Info("Order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)
	if err := s.notifier.StatusChanged(ctx, *o, prev); err != nil {
		lg.Warn("Status changed event not delivered", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}
