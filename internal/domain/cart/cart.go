// Package cart holds a customer's in-progress order.
package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/domain/price"
)

// Item is a menu entry being added to the cart.
type Item struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Line is one item in the cart together with its quantity. Orders keep a
// snapshot of the cart's lines.
type Line struct {
	ItemID        int    `json:"id"`
	Name          string `json:"name"`
	UnitPriceText string `json:"price"`
	Quantity      int    `json:"quantity"`
}

// Subtotal returns the parsed unit price multiplied by the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return price.Parse(l.UnitPriceText).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the in-progress order of a single customer. It is safe for
// concurrent use.
type Cart struct {
	mu       sync.Mutex
	lines    []Line
	customer customer.Info
	open     bool
}

// New returns an empty, closed cart.
func New() *Cart {
	return &Cart{}
}

// AddItem increments the quantity of the matching line or appends a new line
// with quantity 1.
func (c *Cart) AddItem(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ItemID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ItemID:        item.ID,
		Name:          item.Name,
		UnitPriceText: item.Price,
		Quantity:      1,
	})
}

// RemoveItem deletes the line for id regardless of its quantity.
func (c *Cart) RemoveItem(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool { return l.ItemID == id })
}

// UpdateQuantity sets the quantity of the line for id. A quantity of zero or
// less removes the line.
func (c *Cart) UpdateQuantity(id, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ItemID == id {
			c.lines[i].Quantity = qty
		}
	}
	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool { return l.Quantity <= 0 })
}

// Clear empties the cart and resets the customer details. The open/closed
// state is left untouched.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.customer = customer.Info{}
}

// Checkout hands the customer details and a copy of the lines to place and
// clears the cart if place succeeds. The cart stays locked until place
// returns, so changes made meanwhile wait and are kept.
func (c *Cart) Checkout(place func(info customer.Info, lines []Line) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := place(c.customer, slices.Clone(c.lines)); err != nil {
		return err
	}
	c.lines = nil
	c.customer = customer.Info{}
	return nil
}

// SetCustomer replaces the customer details.
func (c *Cart) SetCustomer(info customer.Info) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.customer = info
}

// Customer returns the customer details.
func (c *Cart) Customer() customer.Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.customer
}

// Toggle flips the cart between open and closed.
func (c *Cart) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = !c.open
}

// Close marks the cart closed.
func (c *Cart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = false
}

// IsOpen reports whether the cart is open.
func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

// TotalPrice sums the subtotal of every line.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Total(c.lines)
}

// TotalItems sums the quantities of every line.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums the subtotals of lines.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
