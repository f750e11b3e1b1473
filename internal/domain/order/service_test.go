package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/storage/memory"
)

// --- Mock implementations ---

type mockNotifier struct {
	created []Order
	changed []Status
	err     error
}

func (m *mockNotifier) OrderCreated(_ context.Context, o Order) error {
	m.created = append(m.created, o)
	return m.err
}

func (m *mockNotifier) StatusChanged(_ context.Context, _ Order, prev Status) error {
	m.changed = append(m.changed, prev)
	return m.err
}

// --- Helpers ---

func newTestService(t *testing.T, r *Repository, n Notifier) *Service {
	t.Helper()
	svc, err := NewService(r, n, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return svc
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.AddItem(cart.Item{ID: 1, Name: "Chicken Roll", Price: "₹120"})
	c.AddItem(cart.Item{ID: 1, Name: "Chicken Roll", Price: "₹120"})
	c.AddItem(cart.Item{ID: 2, Name: "Tea", Price: "₹40"})
	c.SetCustomer(asha)
	return c
}

// --- Tests ---

func TestCheckout_Success(t *testing.T) {
	n := &mockNotifier{}
	r := newTestRepo(t, memory.New(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, r, n)
	c := filledCart()

	o, err := svc.Checkout(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "1", o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "280.00", o.Total.StringFixed(2))
	assert.Equal(t, 3, o.ItemCount())
	assert.Equal(t, asha, o.Customer)

	assert.Empty(t, c.Lines(), "cart is cleared after checkout")
	require.Len(t, n.created, 1)
	assert.Equal(t, o.ID, n.created[0].ID)
}

func TestCheckout_RoundsTotal(t *testing.T) {
	svc := newTestService(t, newTestRepo(t, memory.New(), time.Now()), nil)
	c := cart.New()
	c.AddItem(cart.Item{ID: 1, Name: "Lassi", Price: "₹33.335"})
	c.SetCustomer(asha)

	o, err := svc.Checkout(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("33.34").Equal(o.Total), "got %s", o.Total)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(t, newTestRepo(t, memory.New(), time.Now()), nil)
	c := cart.New()
	c.SetCustomer(asha)

	_, err := svc.Checkout(context.Background(), c)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidCustomerLeavesCart(t *testing.T) {
	r := newTestRepo(t, memory.New(), time.Now())
	svc := newTestService(t, r, nil)
	c := filledCart()
	c.SetCustomer(customer.Info{Name: "A", Phone: "12345"})

	_, err := svc.Checkout(context.Background(), c)
	var verr *customer.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Len(t, c.Lines(), 2)
	orders, err := r.Orders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_SaveErrorLeavesCart(t *testing.T) {
	n := &mockNotifier{}
	r := newTestRepo(t, &failingPort{saveErr: errors.New("quota exceeded")}, time.Now())
	svc := newTestService(t, r, n)
	c := filledCart()

	_, err := svc.Checkout(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save order")
	assert.Len(t, c.Lines(), 2)
	assert.Empty(t, n.created)
}

func TestCheckout_NotifierFailureIsNotFatal(t *testing.T) {
	n := &mockNotifier{err: errors.New("broker down")}
	svc := newTestService(t, newTestRepo(t, memory.New(), time.Now()), n)

	o, err := svc.Checkout(context.Background(), filledCart())
	require.NoError(t, err)
	assert.Equal(t, "1", o.OrderNumber)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	n := &mockNotifier{}
	r := newTestRepo(t, memory.New(), time.Now())
	svc := newTestService(t, r, n)

	o, err := svc.Checkout(ctx, filledCart())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, []Status{StatusPending}, n.changed)

	_, err = svc.UpdateStatus(ctx, "missing", StatusCompleted)
	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Len(t, n.changed, 1)
}
