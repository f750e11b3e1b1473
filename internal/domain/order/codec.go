package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
)

// amount serializes a decimal as a bare JSON number while still accepting
// quoted numbers on input.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

// record is the stored shape of an order, matching the documents written by
// the browser front-end.
type record struct {
	ID           string        `json:"id"`
	OrderNumber  string        `json:"orderNumber"`
	CustomerInfo customer.Info `json:"customerInfo"`
	Items        []cart.Line   `json:"items"`
	Total        amount        `json:"total"`
	Date         time.Time     `json:"date"`
	Status       Status        `json:"status"`
}

// Marshal encodes orders as a JSON array.
func Marshal(orders []Order) ([]byte, error) {
	recs := make([]record, len(orders))
	for i, o := range orders {
		recs[i] = record{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerInfo: o.Customer,
			Items:        o.Items,
			Total:        amount(o.Total),
			Date:         o.Date,
			Status:       o.Status,
		}
	}
	return json.Marshal(recs)
}

// Unmarshal decodes a JSON array of orders. Empty input yields no orders.
func Unmarshal(data []byte) ([]Order, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	orders := make([]Order, len(recs))
	for i, r := range recs {
		status := r.Status
		if status == "" {
			status = StatusPending
		}
		orders[i] = Order{
			ID:          r.ID,
			OrderNumber: r.OrderNumber,
			Customer:    r.CustomerInfo,
			Items:       r.Items,
			Total:       decimal.Decimal(r.Total),
			Date:        r.Date,
			Status:      status,
		}
	}
	return orders, nil
}
