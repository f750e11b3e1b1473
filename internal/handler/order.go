package handler

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/export"
	"github.com/xenking/restaurant-mis/internal/receipt"
)

const defaultTopItems = 10

var endOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

func (h *Handler) parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, value, h.loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(errBadBody, "invalid date %q, want YYYY-MM-DD", value)
	}
	return day, nil
}

// dateRange reads optional from/to query dates as whole local days.
func (h *Handler) dateRange(r *http.Request) (start, end *time.Time, err error) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		day, err := h.parseDay(v)
		if err != nil {
			return nil, nil, err
		}
		s, _ := order.DayBounds(day)
		start = &s
	}
	if v := q.Get("to"); v != "" {
		day, err := h.parseDay(v)
		if err != nil {
			return nil, nil, err
		}
		_, e := order.DayBounds(day)
		end = &e
	}
	return start, end, nil
}

func (h *Handler) today() time.Time {
	return h.now().In(h.loc)
}

// attachment marks the response as a file download.
func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ListOrders returns orders newest first, optionally filtered by customer
// name and by date.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("customer"))

	var orders []order.Order
	switch {
	case start != nil || end != nil:
		from, to := time.Time{}, endOfTime
		if start != nil {
			from = *start
		}
		if end != nil {
			to = *end
		}
		orders, err = h.orders.OrdersByDateRange(r.Context(), from, to)
		if err == nil && name != "" {
			needle := strings.ToLower(name)
			orders = filterOrders(orders, func(o order.Order) bool {
				return strings.Contains(strings.ToLower(o.Customer.Name), needle)
			})
		}
	case name != "":
		orders, err = h.orders.OrdersByCustomer(r.Context(), name)
	default:
		orders, err = h.orders.Orders(r.Context())
	}
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

func filterOrders(orders []order.Order, keep func(order.Order) bool) []order.Order {
	out := orders[:0]
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// UpdateOrderStatus changes an order's status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeStatus(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	status, err := order.ParseStatus(raw)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

// DeleteOrder removes one order.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		mapOrderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearOrders removes every order.
func (h *Handler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.ClearAllOrders(r.Context()); err != nil {
		mapOrderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportOrders downloads every order as orders_YYYY-MM-DD.csv.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Orders(r.Context())
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		internalError(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", export.Filename(export.OrdersPrefix, h.today()), buf.Bytes())
}

// TotalSales sums completed orders between the optional from and to days.
func (h *Handler) TotalSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	total, err := h.orders.TotalSales(r.Context(), start, end)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("total", func(e *jx.Encoder) { money(e, total) })
		})
	})
}

// TopItems ranks items by quantity sold in completed orders.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopItems
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	items, err := h.orders.TopItems(r.Context(), limit)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTopItems(e, items) })
}

func (h *Handler) report(r *http.Request) (*order.DailyReport, error) {
	day := h.today()
	if v := r.URL.Query().Get("date"); v != "" {
		var err error
		if day, err = h.parseDay(v); err != nil {
			return nil, err
		}
	}
	return h.orders.DailyReport(r.Context(), day)
}

// DailyReport returns one day's summary as JSON.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.report(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeReport(e, rep) })
}

// DailyReportText downloads daily_report_YYYY-MM-DD.txt, or its gzip
// archive with ?gzip=1.
func (h *Handler) DailyReportText(w http.ResponseWriter, r *http.Request) {
	rep, err := h.report(r)
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	name := receipt.ReportFilename(rep.Date)
	if gz, _ := strconv.ParseBool(r.URL.Query().Get("gzip")); gz {
		var buf bytes.Buffer
		if err := receipt.WriteDailyReportGzip(&buf, rep); err != nil {
			internalError(w, r, err)
			return
		}
		attachment(w, "application/gzip", name+".gz", buf.Bytes())
		return
	}
	attachment(w, "text/plain; charset=utf-8", name, []byte(receipt.DailyReportText(rep)))
}
