package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
)

const maxBodySize = 64 << 10

// errBadBody marks request bodies that could not be decoded.
var errBadBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, code int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func writeFieldError(w http.ResponseWriter, code int, field, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
			e.Field("field", func(e *jx.Encoder) { e.Str(field) })
		})
	})
}

// decodeObject reads the request body as one JSON object, calling fn for
// each field.
func decodeObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(errBadBody, err.Error())
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		return errors.Wrap(errBadBody, err.Error())
	}
	return nil
}

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339))
}

func encodeCustomer(e *jx.Encoder, c customer.Info) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
	})
}

func encodeLines(e *jx.Encoder, lines []cart.Line) {
	e.Arr(func(e *jx.Encoder) {
		for _, l := range lines {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Int(l.ItemID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
				e.Field("price", func(e *jx.Encoder) { e.Str(l.UnitPriceText) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				e.Field("subtotal", func(e *jx.Encoder) { money(e, l.Subtotal()) })
			})
		}
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	lines := c.Lines()
	e.Obj(func(e *jx.Encoder) {
		e.Field("open", func(e *jx.Encoder) { e.Bool(c.IsOpen()) })
		e.Field("customer", func(e *jx.Encoder) { encodeCustomer(e, c.Customer()) })
		e.Field("items", func(e *jx.Encoder) { encodeLines(e, lines) })
		e.Field("totalItems", func(e *jx.Encoder) { e.Int(c.TotalItems()) })
		e.Field("totalPrice", func(e *jx.Encoder) { money(e, cart.Total(lines)) })
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(o.OrderNumber) })
		e.Field("customer", func(e *jx.Encoder) { encodeCustomer(e, o.Customer) })
		e.Field("items", func(e *jx.Encoder) { encodeLines(e, o.Items) })
		e.Field("total", func(e *jx.Encoder) { money(e, o.Total) })
		e.Field("date", func(e *jx.Encoder) { timestamp(e, o.Date) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
	})
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range orders {
			encodeOrder(e, o)
		}
	})
}

func encodeTopItems(e *jx.Encoder, items []order.TopItem) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
				e.Field("revenue", func(e *jx.Encoder) { money(e, it.Revenue) })
			})
		}
	})
}

func encodeReport(e *jx.Encoder, rep *order.DailyReport) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("date", func(e *jx.Encoder) { e.Str(rep.Date.Format(time.DateOnly)) })
		e.Field("totalOrders", func(e *jx.Encoder) { e.Int(rep.TotalOrders) })
		e.Field("totalRevenue", func(e *jx.Encoder) { money(e, rep.TotalRevenue) })
		e.Field("topItems", func(e *jx.Encoder) { encodeTopItems(e, rep.TopItems) })
		e.Field("orders", func(e *jx.Encoder) { encodeOrders(e, rep.Orders) })
	})
}

func encodeFeedback(e *jx.Encoder, f feedback.Feedback) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(f.ID) })
		e.Field("orderId", func(e *jx.Encoder) { e.Str(f.OrderID) })
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(f.OrderNumber) })
		e.Field("customerName", func(e *jx.Encoder) { e.Str(f.CustomerName) })
		e.Field("customerPhone", func(e *jx.Encoder) { e.Str(f.CustomerPhone) })
		e.Field("rating", func(e *jx.Encoder) { e.Int(f.Rating) })
		e.Field("foodQuality", func(e *jx.Encoder) { e.Int(f.FoodQuality) })
		e.Field("serviceQuality", func(e *jx.Encoder) { e.Int(f.ServiceQuality) })
		e.Field("deliveryTime", func(e *jx.Encoder) { e.Int(f.DeliveryTime) })
		e.Field("comments", func(e *jx.Encoder) { e.Str(f.Comments) })
		e.Field("date", func(e *jx.Encoder) { timestamp(e, f.Date) })
		e.Field("wouldRecommend", func(e *jx.Encoder) { e.Bool(f.WouldRecommend) })
	})
}

func encodeStats(e *jx.Encoder, s feedback.Stats, avg feedback.Averages) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("total", func(e *jx.Encoder) { e.Int(s.Total) })
		e.Field("averageRating", func(e *jx.Encoder) { e.Float64(s.AverageRating) })
		e.Field("recommendPercent", func(e *jx.Encoder) { e.Float64(s.RecommendPercent) })
		e.Field("distribution", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for rating := 1; rating <= 5; rating++ {
					e.Field(strconv.Itoa(rating), func(e *jx.Encoder) { e.Int(s.Distribution[rating]) })
				}
			})
		})
		e.Field("averages", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("rating", func(e *jx.Encoder) { e.Float64(avg.Rating) })
				e.Field("foodQuality", func(e *jx.Encoder) { e.Float64(avg.FoodQuality) })
				e.Field("serviceQuality", func(e *jx.Encoder) { e.Float64(avg.ServiceQuality) })
				e.Field("deliveryTime", func(e *jx.Encoder) { e.Float64(avg.DeliveryTime) })
			})
		})
	})
}

func decodeItem(r *http.Request) (cart.Item, error) {
	var it cart.Item
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			it.ID, err = d.Int()
		case "name":
			it.Name, err = d.Str()
		case "price":
			it.Price, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func decodeQuantity(r *http.Request) (int, error) {
	qty, seen := 0, false
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		seen = true
		var err error
		qty, err = d.Int()
		return err
	})
	if err == nil && !seen {
		err = errors.Wrap(errBadBody, "quantity is required")
	}
	return qty, err
}

func decodeCustomer(r *http.Request) (customer.Info, error) {
	var info customer.Info
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			info.Name, err = d.Str()
		case "phone":
			info.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return info, err
}

func decodeOpen(r *http.Request) (bool, error) {
	open := false
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "open" {
			return d.Skip()
		}
		var err error
		open, err = d.Bool()
		return err
	})
	return open, err
}

func decodeStatus(r *http.Request) (string, error) {
	var status string
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		var err error
		status, err = d.Str()
		return err
	})
	return status, err
}

func decodeFeedback(r *http.Request) (feedback.Input, error) {
	var in feedback.Input
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "orderId":
			in.OrderID, err = d.Str()
		case "orderNumber":
			in.OrderNumber, err = d.Str()
		case "customerName":
			in.CustomerName, err = d.Str()
		case "customerPhone":
			in.CustomerPhone, err = d.Str()
		case "rating":
			in.Rating, err = d.Int()
		case "foodQuality":
			in.FoodQuality, err = d.Int()
		case "serviceQuality":
			in.ServiceQuality, err = d.Int()
		case "deliveryTime":
			in.DeliveryTime, err = d.Int()
		case "comments":
			in.Comments, err = d.Str()
		case "wouldRecommend":
			in.WouldRecommend, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return in, err
}
