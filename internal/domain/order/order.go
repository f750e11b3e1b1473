package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Sentinel errors returned by the order repository and service.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrEmptyCart     = errors.New("cart is empty")
)

// ParseStatus converts s to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
	}
}

// Order is a finalized customer order. Items, Total and Customer never change
// after creation; only Status does.
type Order struct {
	ID          string
	OrderNumber string
	Customer    customer.Info
	Items       []cart.Line
	Total       decimal.Decimal
	Date        time.Time
	Status      Status
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// ItemCount sums the quantities of all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

// Notifier is told about order lifecycle events. Implementations must not
// block for long; failures are logged by the caller and never undo a change.
type Notifier interface {
	OrderCreated(ctx context.Context, o Order) error
	StatusChanged(ctx context.Context, o Order, prev Status) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) OrderCreated(context.Context, Order) error          { return nil }
func (NopNotifier) StatusChanged(context.Context, Order, Status) error { return nil }
