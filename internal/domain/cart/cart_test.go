package cart

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/restaurant-mis/internal/domain/customer"
)

var (
	chickenRoll = Item{ID: 1, Name: "Chicken Roll", Price: "₹120"}
	tea         = Item{ID: 2, Name: "Tea", Price: "₹40"}
)

func TestCart_TotalPrice(t *testing.T) {
	c := New()
	c.AddItem(chickenRoll)
	c.AddItem(chickenRoll)
	c.AddItem(tea)

	assert.True(t, decimal.RequireFromString("280.00").Equal(c.TotalPrice()))
	assert.Equal(t, 3, c.TotalItems())
	require.Len(t, c.Lines(), 2)
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestCart_UpdateQuantityZeroRemovesLine(t *testing.T) {
	c := New()
	c.AddItem(chickenRoll)
	c.AddItem(chickenRoll)
	c.AddItem(tea)

	c.UpdateQuantity(1, 0)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Tea", lines[0].Name)
	assert.Equal(t, 1, c.TotalItems())
}

func TestCart_RemoveItemIgnoresQuantity(t *testing.T) {
	c := New()
	for range 5 {
		c.AddItem(tea)
	}
	c.RemoveItem(tea.ID)

	assert.Empty(t, c.Lines())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestCart_ClearKeepsOpenState(t *testing.T) {
	c := New()
	c.Toggle()
	c.AddItem(tea)
	c.SetCustomer(customer.Info{Name: "Asha", Phone: "9876543210"})

	c.Clear()

	assert.True(t, c.IsOpen())
	assert.Empty(t, c.Lines())
	assert.Equal(t, customer.Info{}, c.Customer())

	c.Close()
	assert.False(t, c.IsOpen())
}

func TestCart_UnparseablePriceCountsAsZero(t *testing.T) {
	c := New()
	c.AddItem(Item{ID: 9, Name: "Mystery", Price: "market price"})
	c.AddItem(tea)

	assert.True(t, decimal.NewFromInt(40).Equal(c.TotalPrice()))
}

func TestCart_LinesIsASnapshot(t *testing.T) {
	c := New()
	c.AddItem(tea)
	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, c.TotalItems())
}

func TestCart_RandomSequencesKeepInvariants(t *testing.T) {
	items := []Item{
		chickenRoll,
		tea,
		{ID: 3, Name: "Samosa", Price: "₹25.50"},
		{ID: 4, Name: "Thali", Price: "₹1,200"},
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for run := range 200 {
		c := New()
		for range 30 {
			it := items[rng.IntN(len(items))]
			switch rng.IntN(3) {
			case 0:
				c.AddItem(it)
			case 1:
				c.UpdateQuantity(it.ID, rng.IntN(6)-2)
			case 2:
				c.RemoveItem(it.ID)
			}
		}

		sum := 0
		for _, l := range c.Lines() {
			assert.Positive(t, l.Quantity, "run %d", run)
			sum += l.Quantity
		}
		assert.Equal(t, sum, c.TotalItems(), "run %d", run)
	}
}

func TestCart_TotalPriceIndependentOfAddOrder(t *testing.T) {
	adds := []Item{chickenRoll, tea, chickenRoll, {ID: 3, Name: "Samosa", Price: "₹25.50"}, tea, tea}
	want := func() decimal.Decimal {
		c := New()
		for _, it := range adds {
			c.AddItem(it)
		}
		return c.TotalPrice()
	}()

	rng := rand.New(rand.NewPCG(7, 7))
	for range 50 {
		shuffled := append([]Item(nil), adds...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		c := New()
		for _, it := range shuffled {
			c.AddItem(it)
		}
		assert.True(t, want.Equal(c.TotalPrice()), "got %s want %s", c.TotalPrice(), want)
	}
}

func TestSessions(t *testing.T) {
	s := NewSessions(0)
	a := s.Get("a")
	a.AddItem(tea)

	assert.Same(t, a, s.Get("a"))
	assert.NotSame(t, a, s.Get("b"))
	assert.Equal(t, 2, s.Len())

	got, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len(), "lookup does not create carts")

	s.Drop("a")
	assert.Empty(t, s.Get("a").Lines())
}

func TestSessions_Sweep(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Hour)
	s.now = func() time.Time { return now }

	s.Get("idle")
	s.Get("active")

	now = now.Add(50 * time.Minute)
	_, ok := s.Lookup("active")
	require.True(t, ok)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, ok = s.Lookup("idle")
	assert.False(t, ok)
	_, ok = s.Lookup("active")
	assert.True(t, ok)
}

func TestCart_CheckoutKeepsConcurrentChanges(t *testing.T) {
	c := New()
	c.AddItem(chickenRoll)
	c.SetCustomer(customer.Info{Name: "Asha Rao", Phone: "9876543210"})

	added := make(chan struct{})
	err := c.Checkout(func(info customer.Info, lines []Line) error {
		assert.Equal(t, "Asha Rao", info.Name)
		require.Len(t, lines, 1)
		go func() {
			c.AddItem(tea)
			close(added)
		}()
		select {
		case <-added:
			t.Error("cart changed while checking out")
		case <-time.After(20 * time.Millisecond):
		}
		return nil
	})
	require.NoError(t, err)
	<-added

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Tea", lines[0].Name)
	assert.Empty(t, c.Customer().Name)
}

func TestCart_CheckoutFailureKeepsCart(t *testing.T) {
	c := New()
	c.AddItem(chickenRoll)

	err := c.Checkout(func(customer.Info, []Line) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)
	assert.Len(t, c.Lines(), 1)
}
