package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/export"
)

// SubmitFeedback stores a customer's rating of an existing order. Each order
// takes one feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	in, err := decodeFeedback(r)
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	if err := feedback.Validate(in); err != nil {
		mapFeedbackError(w, r, err)
		return
	}

	ctx := r.Context()
	o, err := h.orders.OrderByNumber(ctx, in.OrderNumber)
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	in.OrderID = o.ID
	if in.CustomerName == "" {
		in.CustomerName = o.Customer.Name
	}
	if in.CustomerPhone == "" {
		in.CustomerPhone = o.Customer.Phone
	}
	f, err := h.feedbacks.SaveFeedback(ctx, in)
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeFeedback(e, *f) })
}

// GetOrderFeedback returns the feedback left for an order, if any.
func (h *Handler) GetOrderFeedback(w http.ResponseWriter, r *http.Request) {
	f, err := h.feedbacks.FeedbackByOrderNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeFeedback(e, *f) })
}

func (h *Handler) listFeedback(r *http.Request) ([]feedback.Feedback, error) {
	if phone := strings.TrimSpace(r.URL.Query().Get("phone")); phone != "" {
		return h.feedbacks.FeedbacksByPhone(r.Context(), phone)
	}
	return h.feedbacks.Feedbacks(r.Context())
}

// ListFeedback returns feedback, newest first, together with aggregate
// statistics over all feedback.
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.listFeedback(r)
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	stats, err := h.feedbacks.Stats(r.Context())
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	avg, err := h.feedbacks.AverageRatings(r.Context())
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("feedback", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, f := range list {
						encodeFeedback(e, f)
					}
				})
			})
			e.Field("stats", func(e *jx.Encoder) { encodeStats(e, stats, avg) })
		})
	})
}

// ExportFeedback downloads feedbacks_YYYY-MM-DD.csv, or one customer's
// customer_feedback_YYYY-MM-DD.csv when ?phone= is given.
func (h *Handler) ExportFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.listFeedback(r)
	if err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteFeedbacks(&buf, list); err != nil {
		internalError(w, r, err)
		return
	}
	prefix := export.FeedbacksPrefix
	if r.URL.Query().Get("phone") != "" {
		prefix = export.CustomerFeedbackPrefix
	}
	attachment(w, "text/csv; charset=utf-8", export.Filename(prefix, h.today()), buf.Bytes())
}

// ClearFeedback removes all feedback.
func (h *Handler) ClearFeedback(w http.ResponseWriter, r *http.Request) {
	if err := h.feedbacks.ClearAllFeedbacks(r.Context()); err != nil {
		mapFeedbackError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
