package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"
)

const maxIssueAttempts = 3

// Issuer materializes the tickets of a verified purchase, exactly once per
// payment id.
type Issuer struct {
	store TicketStore
	codes *CodeIssuer
	now   func() time.Time
}

func NewIssuer(store TicketStore, codes *CodeIssuer) *Issuer {
	return &Issuer{store: store, codes: codes, now: time.Now}
}

// Issue returns the ticket set of the purchase's payment, creating it if it
// does not exist yet. created reports whether this call wrote the set.
func (i *Issuer) Issue(ctx context.Context, p *models.VerifiedPurchase) (tickets []models.Ticket, created bool, err error) {
	existing, err := i.store.FindByPayment(ctx, p.PaymentID)
	if err != nil {
		return nil, false, fmt.Errorf("store.FindByPayment: %w", err)
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	if p.Quantity < 1 {
		return nil, false, fmt.Errorf("%w: quantity %d", status.ErrValidation, p.Quantity)
	}

	for attempt := 1; ; attempt++ {
		batch, err := i.newBatch(p)
		if err != nil {
			return nil, false, err
		}

		err = i.store.CreateBatch(ctx, p.PaymentID, batch)
		switch {
		case err == nil:
			return batch, true, nil

		case errors.Is(err, status.ErrIssuanceExists):
			// lost the race, the winner's set is authoritative
			existing, err := i.store.FindByPayment(ctx, p.PaymentID)
			if err != nil {
				return nil, false, fmt.Errorf("store.FindByPayment: %w", err)
			}
			if len(existing) == 0 {
				return nil, false, fmt.Errorf("payment %s: claimed but no tickets: %w", p.PaymentID, status.ErrStorageConflict)
			}
			return existing, false, nil

		case errors.Is(err, status.ErrCodeCollision) && attempt < maxIssueAttempts:
			slog.Warn("i.store.CreateBatch()", "payment_id", p.PaymentID, "attempt", attempt, "error", err)
			continue

		default:
			return nil, false, fmt.Errorf("store.CreateBatch: %w", err)
		}
	}
}

func (i *Issuer) newBatch(p *models.VerifiedPurchase) ([]models.Ticket, error) {
	now := i.now().UTC()
	batch := make([]models.Ticket, 0, p.Quantity)

	for seq := 1; seq <= p.Quantity; seq++ {
		id, err := i.codes.NewTicketID(now, seq)
		if err != nil {
			return nil, err
		}

		batch = append(batch, models.Ticket{
			TicketID:    id,
			QRToken:     i.codes.NewToken(now),
			HolderName:  p.BuyerName,
			HolderPhone: p.BuyerPhone,
			PricePaid:   p.UnitPrice,
			PaymentID:   p.PaymentID,
			OrderID:     p.OrderID,
			CreatedAt:   now,
		})
	}

	return batch, nil
}
