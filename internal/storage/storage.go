// Package storage defines the persistence port used by the order and feedback
// repositories. A port stores opaque JSON documents under fixed keys.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Collection keys.
const (
	OrdersKey    = "restaurant_orders"
	FeedbacksKey = "restaurant_feedbacks"
)

// Port loads and saves whole collections as serialized documents.
type Port interface {
	// Load returns the document stored under key, or nil when nothing has
	// been stored yet.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// Pinger is implemented by ports that can report backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SalesTotaler is implemented by ports that can sum order totals in the
// backend. Only orders with the given status count; start and end are
// inclusive bounds on the order date and nil means unbounded.
type SalesTotaler interface {
	SumOrderTotals(ctx context.Context, status string, start, end *time.Time) (decimal.Decimal, error)
}
