// Package handler serves the MIS HTTP API on a net/http ServeMux, encoding
// bodies with jx.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xenking/restaurant-mis/internal/domain/cart"
	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/receipt"
)

// Printer delivers an ESC/POS payload to a receipt printer.
type Printer interface {
	Print(ctx context.Context, data []byte) error
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	Receipt receipt.Options
	// Location interprets YYYY-MM-DD query dates and report days. Defaults to
	// time.Local.
	Location *time.Location
}

// Handler implements every API route, delegating to the domain packages.
type Handler struct {
	sessions  *cart.Sessions
	orders    *order.Repository
	service   *order.Service
	feedbacks *feedback.Repository
	printer   Printer

	receipt receipt.Options
	logo    []byte
	loc     *time.Location
	now     func() time.Time
}

// New constructs a Handler. printer may be nil, in which case print requests
// report that no printer was found.
func New(
	cfg Config,
	sessions *cart.Sessions,
	orders *order.Repository,
	service *order.Service,
	feedbacks *feedback.Repository,
	printer Printer,
) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		sessions:  sessions,
		orders:    orders,
		service:   service,
		feedbacks: feedbacks,
		printer:   printer,
		receipt:   cfg.Receipt,
		logo:      receipt.LogoRaster(cfg.Receipt.Logo),
		loc:       loc,
		now:       time.Now,
	}
}

// Register adds all routes to mux. Back-office routes are wrapped with
// sec.Require.
func (h *Handler) Register(mux *http.ServeMux, sec *Security) {
	mux.HandleFunc("GET /api/carts/{session}", h.GetCart)
	mux.HandleFunc("DELETE /api/carts/{session}", h.ClearCart)
	mux.HandleFunc("PUT /api/carts/{session}/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/carts/{session}/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/carts/{session}/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("PUT /api/carts/{session}/customer", h.SetCartCustomer)
	mux.HandleFunc("PUT /api/carts/{session}/open", h.SetCartOpen)
	mux.HandleFunc("POST /api/carts/{session}/checkout", h.Checkout)

	mux.HandleFunc("GET /api/orders/{number}/receipt.html", h.ReceiptHTML)
	mux.HandleFunc("GET /api/orders/{number}/receipt.pdf", h.ReceiptPDF)
	mux.HandleFunc("GET /api/orders/{number}/receipt.bin", h.ReceiptESCPOS)
	mux.HandleFunc("POST /api/orders/{number}/print", h.PrintReceipt)
	mux.HandleFunc("GET /api/orders/{number}/feedback", h.GetOrderFeedback)
	mux.HandleFunc("POST /api/feedback", h.SubmitFeedback)

	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, sec.Require(fn))
	}
	admin("GET /api/admin/orders", h.ListOrders)
	admin("DELETE /api/admin/orders", h.ClearOrders)
	admin("PATCH /api/admin/orders/{id}/status", h.UpdateOrderStatus)
	admin("DELETE /api/admin/orders/{id}", h.DeleteOrder)
	admin("GET /api/admin/orders.csv", h.ExportOrders)
	admin("GET /api/admin/sales", h.TotalSales)
	admin("GET /api/admin/top-items", h.TopItems)
	admin("GET /api/admin/reports/daily", h.DailyReport)
	admin("GET /api/admin/reports/daily.txt", h.DailyReportText)
	admin("GET /api/admin/feedback", h.ListFeedback)
	admin("DELETE /api/admin/feedback", h.ClearFeedback)
	admin("GET /api/admin/feedback.csv", h.ExportFeedback)
}
