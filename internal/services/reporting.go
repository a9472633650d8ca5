package services

import (
	"context"
	"fmt"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/shopspring/decimal"
)

const defaultLoginListLimit = 100

// Reporting serves the read-only views: purchase confirmation, stats and the
// login audit.
type Reporting struct {
	store TicketStore
	audit LoginAuditLog
}

func NewReporting(store TicketStore, audit LoginAuditLog) *Reporting {
	return &Reporting{store: store, audit: audit}
}

// Purchase returns the tickets of one payment with their totals.
func (r *Reporting) Purchase(ctx context.Context, paymentID string) (*models.PurchaseSummary, error) {
	tickets, err := r.store.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("store.FindByPayment: %w", err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("payment %s: %w", paymentID, status.ErrTicketNotFound)
	}

	total := decimal.Zero
	for _, t := range tickets {
		total = total.Add(t.PricePaid)
	}

	return &models.PurchaseSummary{
		PaymentID: paymentID,
		OrderID:   tickets[0].OrderID,
		Tickets:   tickets,
		Quantity:  len(tickets),
		UnitPrice: tickets[0].PricePaid,
		Total:     total,
	}, nil
}

func (r *Reporting) Stats(ctx context.Context) (*models.Stats, error) {
	st, err := r.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.Stats: %w", err)
	}
	return st, nil
}

func (r *Reporting) Logins(ctx context.Context, limit int) ([]models.LoginAudit, error) {
	if limit <= 0 {
		limit = defaultLoginListLimit
	}
	logs, err := r.audit.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("audit.List: %w", err)
	}
	return logs, nil
}
