package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"festival-tickets/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// apiError maps a service error to the HTTP error returned to clients.
func apiError(op string, err error) error {
	switch {
	case errors.Is(err, status.ErrValidation):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError("Unauthorized", nil)
	case errors.Is(err, status.ErrSignatureMismatch):
		return apis.NewBadRequestError("Signature mismatch", nil)
	case errors.Is(err, status.ErrPaymentNotCaptured):
		return apis.NewBadRequestError("Payment not completed", nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError(err.Error(), nil)
	case status.Retryable(err):
		slog.Warn(op, "error", err)
		return apis.NewApiError(http.StatusServiceUnavailable, "Service temporarily unavailable, please retry", nil)
	}
	slog.Error(op, "error", err)
	return apis.NewInternalServerError("internal error", nil)
}
