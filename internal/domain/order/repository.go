package order

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/storage"
)

// Repository keeps finalized orders, most recent first, and persists the
// whole collection through a storage port after every change.
//
// The repository does not validate its input; callers validate customer data
// before saving.
type Repository struct {
	port storage.Port
	lg   *zap.Logger
	now  func() time.Time

	mu     sync.Mutex
	loaded bool
	orders []Order
	// issued is the highest order number handed out by this repository.
	issued int
}

// NewRepository creates a Repository persisting to port. The collection is
// loaded on first use.
func NewRepository(port storage.Port, lg *zap.Logger) *Repository {
	return &Repository{port: port, lg: lg, now: time.Now}
}

// load reads the collection once. Corrupt documents are logged and treated
// as an empty collection. Must be called with r.mu held.
func (r *Repository) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	data, err := r.port.Load(ctx, storage.OrdersKey)
	if err != nil {
		return errors.Wrap(err, "load orders")
	}
	orders, err := Unmarshal(data)
	if err != nil {
		r.lg.Error("Stored orders are corrupt, starting empty",
			zap.String("key", storage.OrdersKey),
			zap.Error(err),
		)
		orders = nil
	}
	r.orders = orders
	r.loaded = true
	return nil
}

// persist saves next and, on success, makes it the current collection.
// Must be called with r.mu held.
func (r *Repository) persist(ctx context.Context, next []Order) error {
	data, err := Marshal(next)
	if err != nil {
		return errors.Wrap(err, "marshal orders")
	}
	if err := r.port.Save(ctx, storage.OrdersKey, data); err != nil {
		return errors.Wrap(err, "save orders")
	}
	r.orders = next
	return nil
}

// snapshot returns deep copies of the current orders sorted by date,
// newest first. Must be called with r.mu held.
func (r *Repository) snapshot(keep func(Order) bool) []Order {
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep == nil || keep(o) {
			out = append(out, o.Clone())
		}
	}
	sortByDateDesc(out)
	return out
}

func sortByDateDesc(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.Date.Compare(a.Date)
	})
}

// nextOrderNumber returns one more than the highest numeric order number
// stored or issued since the last clear, so deleted numbers are not reused.
func (r *Repository) nextOrderNumber() int {
	highest := r.issued
	for _, o := range r.orders {
		if n, err := strconv.Atoi(o.OrderNumber); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// nextID derives an identifier from the creation time in milliseconds,
// bumped forward if an order already uses it.
func (r *Repository) nextID(at time.Time) string {
	id := at.UnixMilli()
	for slices.ContainsFunc(r.orders, func(o Order) bool { return o.ID == strconv.FormatInt(id, 10) }) {
		id++
	}
	return strconv.FormatInt(id, 10)
}

// SaveOrder records a new pending order. Items are copied so later changes to
// the caller's slice cannot alter the saved order.
func (r *Repository) SaveOrder(ctx context.Context, info customer.Info, items []cart.Line, total decimal.Decimal) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}

	now := r.now()
	number := r.nextOrderNumber()
	o := Order{
		ID:          r.nextID(now),
		OrderNumber: strconv.Itoa(number),
		Customer:    info,
		Items:       slices.Clone(items),
		Total:       total,
		Date:        now,
		Status:      StatusPending,
	}

	next := make([]Order, 0, len(r.orders)+1)
	next = append(next, o)
	next = append(next, r.orders...)
	if err := r.persist(ctx, next); err != nil {
		return nil, err
	}
	r.issued = number

	saved := o.Clone()
	return &saved, nil
}

// Orders returns every order, newest first.
func (r *Repository) Orders(ctx context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r.snapshot(nil), nil
}

// Order returns the order with the given id.
func (r *Repository) Order(ctx context.Context, id string) (*Order, error) {
	return r.find(ctx, func(o Order) bool { return o.ID == id })
}

// OrderByNumber returns the order with the given order number.
func (r *Repository) OrderByNumber(ctx context.Context, number string) (*Order, error) {
	return r.find(ctx, func(o Order) bool { return o.OrderNumber == number })
}

func (r *Repository) find(ctx context.Context, match func(Order) bool) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(r.orders, match)
	if i < 0 {
		return nil, ErrOrderNotFound
	}
	o := r.orders[i].Clone()
	return &o, nil
}

// OrdersByDateRange returns orders dated within [start, end], newest first.
func (r *Repository) OrdersByDateRange(ctx context.Context, start, end time.Time) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r.snapshot(func(o Order) bool { return inRange(o.Date, start, end) }), nil
}

// OrdersByCustomer returns orders whose customer name contains name,
// ignoring case.
func (r *Repository) OrdersByCustomer(ctx context.Context, name string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	return r.snapshot(func(o Order) bool {
		return strings.Contains(strings.ToLower(o.Customer.Name), needle)
	}), nil
}

// UpdateOrderStatus replaces the status of the order with id. Any status may
// follow any other. It returns the updated order and its previous status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, status Status) (*Order, Status, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, "", err
	}
	i := slices.IndexFunc(r.orders, func(o Order) bool { return o.ID == id })
	if i < 0 {
		return nil, "", ErrOrderNotFound
	}

	next := slices.Clone(r.orders)
	prev := next[i].Status
	next[i].Status = status
	if err := r.persist(ctx, next); err != nil {
		return nil, "", err
	}

	updated := next[i].Clone()
	return &updated, prev, nil
}

// DeleteOrder removes the order with id.
func (r *Repository) DeleteOrder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return err
	}
	if !slices.ContainsFunc(r.orders, func(o Order) bool { return o.ID == id }) {
		return ErrOrderNotFound
	}
	next := slices.DeleteFunc(slices.Clone(r.orders), func(o Order) bool { return o.ID == id })
	return r.persist(ctx, next)
}

// ClearAllOrders removes every order. Numbering restarts at 1.
func (r *Repository) ClearAllOrders(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return err
	}
	if err := r.persist(ctx, nil); err != nil {
		return err
	}
	r.issued = 0
	return nil
}

// Merge adds orders whose IDs are not yet present, keeping their statuses
// and, where still free, their order numbers. An order whose number is
// already taken is renumbered after the highest known number. It returns
// the number of orders added.
func (r *Repository) Merge(ctx context.Context, orders []Order) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(r.orders))
	taken := make(map[string]struct{}, len(r.orders))
	for _, o := range r.orders {
		seen[o.ID] = struct{}{}
		taken[o.OrderNumber] = struct{}{}
	}

	next := slices.Clone(r.orders)
	var collided []int
	for _, o := range orders {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		if _, ok := taken[o.OrderNumber]; ok || o.OrderNumber == "" {
			collided = append(collided, len(next))
		} else {
			taken[o.OrderNumber] = struct{}{}
		}
		next = append(next, o.Clone())
	}
	added := len(next) - len(r.orders)
	if added == 0 {
		return 0, nil
	}

	highest := r.issued
	for number := range taken {
		if n, err := strconv.Atoi(number); err == nil && n > highest {
			highest = n
		}
	}
	for _, i := range collided {
		highest++
		r.lg.Warn("Imported order number already taken, renumbering",
			zap.String("order_id", next[i].ID),
			zap.String("from", next[i].OrderNumber),
			zap.Int("to", highest),
		)
		next[i].OrderNumber = strconv.Itoa(highest)
	}

	sortByDateDesc(next)
	if err := r.persist(ctx, next); err != nil {
		return 0, err
	}
	return added, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
