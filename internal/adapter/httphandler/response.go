package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
)

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, envelope{Success: false, Error: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	const op = "writeEnvelope"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

// writeFailure maps err to the response status.
// Unexpected errors are logged and hidden from the client.
func writeFailure(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "status", status, "err", err)
	}
	writeError(w, status, msg)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, domain.ErrProductNotFound.Error()
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired, domain.ErrPaymentDeclined.Error()
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict, domain.ErrCheckoutInProgress.Error()
	case errors.Is(err, domain.ErrInvalidProductData),
		errors.Is(err, domain.ErrInvalidCheckoutDetails):
		return http.StatusBadRequest, unwrapMessage(err)
	case errors.Is(err, domain.ErrUnsupportedImage),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrNoSession),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

var clientErrors = []error{
	domain.ErrUnsupportedImage,
	domain.ErrEmptyCart,
	domain.ErrNoSession,
	cart.ErrInvalidProduct,
	cart.ErrInvalidQuantity,
}

func sentinelMessage(err error) string {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// unwrapMessage strips the op prefixes of the wrapped validation error,
// keeping the "<sentinel>: <violations>" tail.
func unwrapMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || isSentinel(next) || !isValidation(next) {
			return err.Error()
		}
		err = next
	}
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrInvalidProductData) ||
		errors.Is(err, domain.ErrInvalidCheckoutDetails)
}

func isSentinel(err error) bool {
	return err == domain.ErrInvalidProductData ||
		err == domain.ErrInvalidCheckoutDetails
}
