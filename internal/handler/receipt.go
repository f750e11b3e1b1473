package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/printer"
	"github.com/xenking/restaurant-mis/internal/receipt"
)

func (h *Handler) orderByNumber(w http.ResponseWriter, r *http.Request) (*order.Order, bool) {
	o, err := h.orders.OrderByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		mapOrderError(w, r, err)
		return nil, false
	}
	return o, true
}

// ReceiptHTML renders the printable receipt page.
func (h *Handler) ReceiptHTML(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orderByNumber(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := receipt.WriteHTML(&buf, h.receipt, *o); err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// ReceiptPDF downloads the receipt as a 58 mm PDF.
func (h *Handler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orderByNumber(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := receipt.WritePDF(&buf, h.receipt, *o); err != nil {
		internalError(w, r, err)
		return
	}
	attachment(w, "application/pdf", "receipt_"+o.OrderNumber+".pdf", buf.Bytes())
}

// escpos renders the simple receipt unless ?logo=1 asks for the bitmap
// header. Raster transfers over small chunked writes often garble.
func (h *Handler) escpos(r *http.Request, o order.Order) []byte {
	if withLogo, _ := strconv.ParseBool(r.URL.Query().Get("logo")); withLogo {
		return receipt.ESCPOS(h.receipt, o, h.logo)
	}
	return receipt.ESCPOSSimple(h.receipt, o)
}

// ReceiptESCPOS downloads the raw printer command stream, for printing
// from a client attached to the printer.
func (h *Handler) ReceiptESCPOS(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orderByNumber(w, r)
	if !ok {
		return
	}
	attachment(w, "application/octet-stream", "receipt_"+o.OrderNumber+".bin", h.escpos(r, *o))
}

// PrintReceipt sends the receipt to the configured printer and reports the
// outcome. The job outlives a client that disconnects mid-print.
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orderByNumber(w, r)
	if !ok {
		return
	}

	outcome := printer.OutcomeNotFound
	if h.printer != nil {
		err := h.printer.Print(context.WithoutCancel(r.Context()), h.escpos(r, *o))
		outcome = printer.OutcomeOf(err)
		if err != nil {
			zctx.From(r.Context()).Warn("Print failed",
				zap.String("order_number", o.OrderNumber),
				zap.String("outcome", string(outcome)),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, printStatus(outcome), func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("outcome", func(e *jx.Encoder) { e.Str(string(outcome)) })
			e.Field("message", func(e *jx.Encoder) { e.Str(outcome.Message()) })
		})
	})
}
