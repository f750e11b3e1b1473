package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/storage"
	"github.com/xenking/restaurant-mis/internal/storage/memory"
)

// --- Mock implementations ---

type failingPort struct {
	loadErr error
	saveErr error
	data    []byte
}

func (f *failingPort) Load(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.loadErr
}

func (f *failingPort) Save(_ context.Context, _ string, _ []byte) error {
	return f.saveErr
}

// --- Helpers ---

var asha = customer.Info{Name: "Asha Rao", Phone: "9876543210"}

func lines() []cart.Line {
	return []cart.Line{
		{ItemID: 1, Name: "Chicken Roll", UnitPriceText: "₹120", Quantity: 2},
		{ItemID: 2, Name: "Tea", UnitPriceText: "₹40", Quantity: 1},
	}
}

// newTestRepo returns a repository whose clock advances one minute per save,
// starting at base.
func newTestRepo(t *testing.T, port storage.Port, base time.Time) *Repository {
	t.Helper()
	r := NewRepository(port, zap.NewNop())
	next := base
	r.now = func() time.Time {
		cur := next
		next = next.Add(time.Minute)
		return cur
	}
	return r
}

func save(t *testing.T, r *Repository, info customer.Info, total string) *Order {
	t.Helper()
	o, err := r.SaveOrder(context.Background(), info, lines(), decimal.RequireFromString(total))
	require.NoError(t, err)
	return o
}

// --- Tests ---

func TestSaveOrder_FreshStore(t *testing.T) {
	r := newTestRepo(t, memory.New(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))

	o := save(t, r, asha, "280.00")

	assert.Equal(t, "1", o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("280.00").Equal(o.Total))
	assert.Equal(t, "1741608000000", o.ID)
	assert.Equal(t, asha, o.Customer)
}

func TestSaveOrder_ItemsAreCopied(t *testing.T) {
	r := newTestRepo(t, memory.New(), time.Now())

	items := lines()
	o, err := r.SaveOrder(context.Background(), asha, items, decimal.NewFromInt(280))
	require.NoError(t, err)

	items[0].Quantity = 50
	o.Items[1].Name = "Coffee"

	stored, err := r.Order(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, "Tea", stored.Items[1].Name)
}

func TestSaveOrder_NumbersNeverReused(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, memory.New(), time.Now())

	save(t, r, asha, "1")
	second := save(t, r, asha, "2")
	third := save(t, r, asha, "3")
	require.Equal(t, "3", third.OrderNumber)

	require.NoError(t, r.DeleteOrder(ctx, second.ID))
	fourth := save(t, r, asha, "4")
	assert.Equal(t, "4", fourth.OrderNumber)

	require.NoError(t, r.DeleteOrder(ctx, fourth.ID))
	fifth := save(t, r, asha, "5")
	assert.Equal(t, "5", fifth.OrderNumber, "deleting the newest order must not free its number")

	require.NoError(t, r.ClearAllOrders(ctx))
	assert.Equal(t, "1", save(t, r, asha, "6").OrderNumber)
}

func TestSaveOrder_UniqueIDsWithinSameMillisecond(t *testing.T) {
	r := NewRepository(memory.New(), zap.NewNop())
	fixed := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	a := save(t, r, asha, "1")
	b := save(t, r, asha, "1")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSaveOrder_IgnoresNonNumericOrderNumbers(t *testing.T) {
	port := memory.New()
	seed, err := Marshal([]Order{{ID: "x", OrderNumber: "legacy-7", Date: time.Now()}, {ID: "y", OrderNumber: "12", Date: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, port.Save(context.Background(), storage.OrdersKey, seed))

	r := newTestRepo(t, port, time.Now())
	o := save(t, r, asha, "1")
	assert.Equal(t, "13", o.OrderNumber)
}

func TestSaveOrder_PersistFailureLeavesStateUnchanged(t *testing.T) {
	port := &failingPort{saveErr: errors.New("disk full")}
	r := newTestRepo(t, port, time.Now())

	_, err := r.SaveOrder(context.Background(), asha, lines(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save orders")

	orders, err := r.Orders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRepository_LoadError(t *testing.T) {
	r := newTestRepo(t, &failingPort{loadErr: errors.New("connection refused")}, time.Now())

	_, err := r.Orders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load orders")
}

func TestRepository_CorruptStorageStartsEmpty(t *testing.T) {
	r := newTestRepo(t, &failingPort{data: []byte(`{not json`)}, time.Now())

	orders, err := r.Orders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRepository_ReloadsPersistedOrders(t *testing.T) {
	ctx := context.Background()
	port := memory.New()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first := newTestRepo(t, port, base)
	o := save(t, first, asha, "280.00")

	second := NewRepository(port, zap.NewNop())
	got, err := second.OrderByNumber(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, o.Date.Equal(got.Date))
	assert.True(t, decimal.RequireFromString("280").Equal(got.Total))
	assert.Equal(t, lines(), got.Items)
}

func TestOrders_NewestFirst(t *testing.T) {
	r := newTestRepo(t, memory.New(), time.Now())
	save(t, r, asha, "1")
	save(t, r, asha, "2")
	save(t, r, asha, "3")

	orders, err := r.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"3", "2", "1"}, []string{orders[0].OrderNumber, orders[1].OrderNumber, orders[2].OrderNumber})
}

func TestOrdersByDateRange_Inclusive(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r := newTestRepo(t, memory.New(), base)
	save(t, r, asha, "1") // 12:00
	save(t, r, asha, "2") // 12:01
	save(t, r, asha, "3") // 12:02

	got, err := r.OrdersByDateRange(context.Background(), base, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].OrderNumber)
	assert.Equal(t, "1", got[1].OrderNumber)
}

func TestOrdersByCustomer_CaseInsensitiveSubstring(t *testing.T) {
	r := newTestRepo(t, memory.New(), time.Now())
	save(t, r, asha, "1")
	save(t, r, customer.Info{Name: "Ravi Kumar", Phone: "9123456780"}, "2")

	got, err := r.OrdersByCustomer(context.Background(), "RAO")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Asha Rao", got[0].Customer.Name)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, memory.New(), time.Now())
	o := save(t, r, asha, "1")

	updated, prev, err := r.UpdateOrderStatus(ctx, o.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, prev)
	assert.Equal(t, StatusCancelled, updated.Status)

	// No transition rules: a cancelled order may be completed.
	updated, prev, err = r.UpdateOrderStatus(ctx, o.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, prev)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.True(t, o.Total.Equal(updated.Total))

	_, _, err = r.UpdateOrderStatus(ctx, "missing", StatusCompleted)
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, _, err = r.UpdateOrderStatus(ctx, o.ID, Status("shipped"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	port := memory.New()
	r := newTestRepo(t, port, time.Now())
	a := save(t, r, asha, "1")
	save(t, r, asha, "2")

	require.ErrorIs(t, r.DeleteOrder(ctx, "missing"), ErrOrderNotFound)
	require.NoError(t, r.DeleteOrder(ctx, a.ID))

	orders, err := NewRepository(port, zap.NewNop()).Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, r.ClearAllOrders(ctx))
	orders, err = NewRepository(port, zap.NewNop()).Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, memory.New(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	existing := save(t, r, asha, "1")

	imported := []Order{
		existing.Clone(),
		{ID: "old", OrderNumber: "40", Customer: asha, Items: lines(), Total: decimal.NewFromInt(280),
			Date: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC), Status: StatusCompleted},
	}
	added, err := r.Merge(ctx, imported)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	next := save(t, r, asha, "1")
	assert.Equal(t, "41", next.OrderNumber)

	orders, err := r.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", orders[len(orders)-1].ID)
}

func TestMerge_RenumbersTakenNumbers(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, memory.New(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	save(t, r, asha, "1")

	at := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	added, err := r.Merge(ctx, []Order{
		{ID: "other-browser-1", OrderNumber: "1", Customer: asha, Date: at, Status: StatusCompleted},
		{ID: "other-browser-2", OrderNumber: "5", Customer: asha, Date: at.Add(time.Minute), Status: StatusPending},
		{ID: "other-browser-3", OrderNumber: "5", Customer: asha, Date: at.Add(2 * time.Minute), Status: StatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	orders, err := r.Orders(ctx)
	require.NoError(t, err)
	numbers := make(map[string]string, len(orders))
	for _, o := range orders {
		_, dup := numbers[o.OrderNumber]
		assert.False(t, dup, "order number %s used twice", o.OrderNumber)
		numbers[o.OrderNumber] = o.ID
	}
	assert.Equal(t, "other-browser-2", numbers["5"])
	assert.Equal(t, "other-browser-1", numbers["6"])
	assert.Equal(t, "other-browser-3", numbers["7"])

	o, err := r.OrderByNumber(ctx, "1")
	require.NoError(t, err)
	assert.NotEqual(t, "other-browser-1", o.ID)
	assert.Equal(t, "8", save(t, r, asha, "1").OrderNumber)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st)

	_, err = ParseStatus("")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
