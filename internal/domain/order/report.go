package order

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/price"
	"github.com/xenking/restaurant-mis/internal/storage"
)

// dailyTopItems is the number of best sellers listed in a daily report.
const dailyTopItems = 5

// TopItem aggregates sales of one item across completed orders.
type TopItem struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
}

// DailyReport summarizes one calendar day of trading.
type DailyReport struct {
	Date time.Time
	// TotalOrders counts orders of any status placed that day.
	TotalOrders int
	// TotalRevenue sums completed orders placed that day.
	TotalRevenue decimal.Decimal
	// TopItems ranks items over all completed orders, not only that day's.
	TopItems []TopItem
	// Orders lists that day's orders, newest first.
	Orders []Order
}

// DayBounds returns 00:00:00.000 and 23:59:59.999 of day's calendar date in
// day's location.
func DayBounds(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// TotalSales sums the totals of completed orders. When start or end is set,
// only orders dated within the bound are counted. Ports implementing
// storage.SalesTotaler compute the sum in the backend; if that fails the
// loaded orders are summed instead.
func (r *Repository) TotalSales(ctx context.Context, start, end *time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return decimal.Zero, err
	}
	if st, ok := r.port.(storage.SalesTotaler); ok {
		sum, err := st.SumOrderTotals(ctx, string(StatusCompleted), start, end)
		if err == nil {
			return sum, nil
		}
		r.lg.Warn("Store could not total sales, summing loaded orders", zap.Error(err))
	}

	sum := decimal.Zero
	for _, o := range r.orders {
		if o.Status != StatusCompleted {
			continue
		}
		if start != nil && o.Date.Before(*start) {
			continue
		}
		if end != nil && o.Date.After(*end) {
			continue
		}
		sum = sum.Add(o.Total)
	}
	return sum, nil
}

// TopItems ranks items of completed orders by quantity sold, highest first.
// Ties keep first-seen order. A non-positive limit returns every item.
func (r *Repository) TopItems(ctx context.Context, limit int) ([]TopItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return topItems(r.orders, limit), nil
}

func topItems(orders []Order, limit int) []TopItem {
	index := make(map[string]int)
	var items []TopItem
	for _, o := range orders {
		if o.Status != StatusCompleted {
			continue
		}
		for _, l := range o.Items {
			i, ok := index[l.Name]
			if !ok {
				i = len(items)
				index[l.Name] = i
				items = append(items, TopItem{Name: l.Name, Revenue: decimal.Zero})
			}
			items[i].Quantity += l.Quantity
			items[i].Revenue = items[i].Revenue.Add(
				price.Parse(l.UnitPriceText).Mul(decimal.NewFromInt(int64(l.Quantity))),
			)
		}
	}

	items = slices.DeleteFunc(items, func(it TopItem) bool { return it.Quantity <= 0 })
	slices.SortStableFunc(items, func(a, b TopItem) int { return b.Quantity - a.Quantity })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// DailyReport builds the report for day's calendar date in day's location.
func (r *Repository) DailyReport(ctx context.Context, day time.Time) (*DailyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}

	start, end := DayBounds(day)
	dayOrders := r.snapshot(func(o Order) bool { return inRange(o.Date, start, end) })

	revenue := decimal.Zero
	for _, o := range dayOrders {
		if o.Status == StatusCompleted {
			revenue = revenue.Add(o.Total)
		}
	}

	return &DailyReport{
		Date:         start,
		TotalOrders:  len(dayOrders),
		TotalRevenue: revenue,
		TopItems:     topItems(r.orders, dailyTopItems),
		Orders:       dayOrders,
	}, nil
}
