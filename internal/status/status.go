package status

import (
	"errors"
	"fmt"
)

// Kinds. Every error returned by the services wraps exactly one of these.
var (
	ErrValidation          = errors.New("validation: invalid request")
	ErrUnauthorized        = errors.New("auth: unauthorized")
	ErrSignatureMismatch   = errors.New("payment: signature mismatch")
	ErrPaymentNotCaptured  = errors.New("payment: payment not captured")
	ErrNotFound            = errors.New("not found")
	ErrStorageConflict     = errors.New("storage: conflicting write")
	ErrUpstreamUnavailable = errors.New("upstream: unavailable")
)

var (
	ErrMalformedCode      = fmt.Errorf("%w: malformed code", ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTicketNotFound     = fmt.Errorf("ticket: %w", ErrNotFound)
	ErrOrderNotFound      = fmt.Errorf("order: %w", ErrNotFound)
	ErrPaymentNotFound    = fmt.Errorf("payment: %w", ErrNotFound)

	// ErrIssuanceExists is returned by a ticket store when the payment already
	// has a ticket batch.
	ErrIssuanceExists = fmt.Errorf("%w: tickets already issued for payment", ErrStorageConflict)
	// ErrCodeCollision is returned by a ticket store when a ticket id or qr token
	// of the batch is already taken.
	ErrCodeCollision = fmt.Errorf("%w: ticket code collision", ErrStorageConflict)
)

// Retryable reports whether the caller may safely repeat the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrStorageConflict)
}
