package gateway

import (
	"context"
	"fmt"

	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"
)

// Gateway is the payment provider as seen by the ticketing core.
//
// Errors wrap status.ErrUpstreamUnavailable for network failures, timeouts and
// provider 5xx, and status.ErrOrderNotFound / status.ErrPaymentNotFound for
// unknown ids.
type Gateway interface {
	// Name returns the provider name
	Name() string

	// KeyID is the public key handed to the client-side checkout
	KeyID() string

	// CreateOrder registers order with the provider and returns it with ID set.
	// Buyer name, phone and quantity travel as order notes.
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)

	// FetchPayment returns the authoritative payment state
	FetchPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// FetchOrder returns the order including the notes stored at creation
	FetchOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// Signature computes the provider's checkout signature for an order and
// payment pair. The message layout "<order_id>|<payment_id>" is fixed by the
// provider.
func Signature(secret, orderID, paymentID string) string {
	return utils.HmacSHA256Hex(secret, orderID+"|"+paymentID)
}

// VerifySignature checks signature against the expected value in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) error {
	if !utils.EqualHex(Signature(secret, orderID, paymentID), signature) {
		return fmt.Errorf("order %s payment %s: %w", orderID, paymentID, status.ErrSignatureMismatch)
	}
	return nil
}
