package services

import (
	"context"
	"fmt"
	"log/slog"

	"festival-tickets/models"
)

type CheckoutResult struct {
	Tickets []models.Ticket
	// Created is false when the tickets already existed for the payment.
	Created bool
}

// Checkout turns a payment confirmation into tickets.
type Checkout struct {
	verifier *Verifier
	issuer   *Issuer
	store    TicketStore
	notifier Notifier
}

func NewCheckout(verifier *Verifier, issuer *Issuer, store TicketStore, notifier Notifier) *Checkout {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Checkout{verifier: verifier, issuer: issuer, store: store, notifier: notifier}
}

// Confirm verifies conf and issues its tickets. Confirming the same payment
// again returns the same tickets without calling the provider.
//
// Errors: status.ErrSignatureMismatch, status.ErrPaymentNotCaptured,
// status.ErrValidation, status.ErrNotFound and status.ErrUpstreamUnavailable.
func (c *Checkout) Confirm(ctx context.Context, conf *models.PaymentConfirmation) (*CheckoutResult, error) {
	if err := c.verifier.CheckSignature(conf); err != nil {
		return nil, err
	}

	existing, err := c.store.FindByPayment(ctx, conf.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("store.FindByPayment: %w", err)
	}
	if len(existing) > 0 && existing[0].OrderID == conf.OrderID {
		return &CheckoutResult{Tickets: existing}, nil
	}

	purchase, err := c.verifier.Verify(ctx, conf)
	if err != nil {
		return nil, err
	}

	tickets, created, err := c.issuer.Issue(ctx, purchase)
	if err != nil {
		return nil, err
	}

	if created {
		if err := c.notifier.TicketsIssued(ctx, tickets); err != nil {
			slog.Error("c.notifier.TicketsIssued()", "payment_id", conf.PaymentID, "error", err)
		}
	}

	return &CheckoutResult{Tickets: tickets, Created: created}, nil
}
