package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/customer"
	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/printer"
)

// mapOrderError writes the response for an error from the order domain.
func mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *customer.ValidationError
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		writeFieldError(w, http.StatusUnprocessableEntity, verr.Field, verr.Message)
	default:
		internalError(w, r, err)
	}
}

// mapFeedbackError writes the response for an error from the feedback domain.
func mapFeedbackError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *feedback.ValidationError
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, feedback.ErrNotFound), errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, feedback.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		writeFieldError(w, http.StatusUnprocessableEntity, verr.Field, verr.Message)
	default:
		internalError(w, r, err)
	}
}

// printStatus maps a print outcome to a response status.
func printStatus(o printer.Outcome) int {
	switch o {
	case printer.OutcomePrinted:
		return http.StatusOK
	case printer.OutcomeCancelled:
		return http.StatusConflict
	case printer.OutcomeNotFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
