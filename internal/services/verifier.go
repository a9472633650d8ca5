package services

import (
	"context"
	"fmt"
	"log/slog"

	"festival-tickets/internal/services/gateway"
	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/shopspring/decimal"
)

// Verifier confirms that a client-reported payment is authentic, captured and
// bound to its order. It has no side effects.
type Verifier struct {
	gw        gateway.Gateway
	secret    string
	unitPrice decimal.Decimal
}

func NewVerifier(gw gateway.Gateway, secret string, unitPrice decimal.Decimal) *Verifier {
	return &Verifier{gw: gw, secret: secret, unitPrice: unitPrice}
}

// CheckSignature validates the confirmation fields and its signature.
// Mismatches are logged as security events.
func (v *Verifier) CheckSignature(conf *models.PaymentConfirmation) error {
	if conf.OrderID == "" || conf.PaymentID == "" || conf.Signature == "" {
		return fmt.Errorf("%w: order id, payment id and signature are required", status.ErrValidation)
	}

	if err := gateway.VerifySignature(v.secret, conf.OrderID, conf.PaymentID, conf.Signature); err != nil {
		slog.Warn("security: payment signature mismatch", "order_id", conf.OrderID, "payment_id", conf.PaymentID)
		return err
	}
	return nil
}

// Verify runs the full check and returns the purchase as recorded by the
// provider at order time. Quantity, name and phone never come from the client.
func (v *Verifier) Verify(ctx context.Context, conf *models.PaymentConfirmation) (*models.VerifiedPurchase, error) {
	if err := v.CheckSignature(conf); err != nil {
		return nil, err
	}

	payment, err := v.gw.FetchPayment(ctx, conf.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("gw.FetchPayment: %w", err)
	}
	if payment.Status != models.PaymentCaptured {
		return nil, fmt.Errorf("payment %s is %s: %w", payment.ID, payment.Status, status.ErrPaymentNotCaptured)
	}
	if payment.OrderID != conf.OrderID {
		return nil, fmt.Errorf("%w: payment %s does not belong to order %s", status.ErrValidation, conf.PaymentID, conf.OrderID)
	}

	order, err := v.gw.FetchOrder(ctx, conf.OrderID)
	if err != nil {
		return nil, fmt.Errorf("gw.FetchOrder: %w", err)
	}
	if order.Quantity < 1 {
		return nil, fmt.Errorf("%w: order %s has quantity %d", status.ErrValidation, order.ID, order.Quantity)
	}

	return &models.VerifiedPurchase{
		OrderID:    conf.OrderID,
		PaymentID:  conf.PaymentID,
		Quantity:   order.Quantity,
		BuyerName:  order.BuyerName,
		BuyerPhone: order.BuyerPhone,
		UnitPrice:  v.unitPrice,
	}, nil
}
