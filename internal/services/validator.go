package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"festival-tickets/models"
)

// EntryValidator admits tickets at the gate. A ticket moves from unused to
// scanned once and never back.
type EntryValidator struct {
	guard    *SessionGuard
	store    TicketStore
	notifier Notifier
	now      func() time.Time
}

func NewEntryValidator(guard *SessionGuard, store TicketStore, notifier Notifier) *EntryValidator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &EntryValidator{guard: guard, store: store, notifier: notifier, now: time.Now}
}

// Validate checks the operator session, then the scanned code. A code that
// was already used yields a duplicate result rather than an error. Of two
// concurrent scans of one code exactly one is approved.
func (v *EntryValidator) Validate(ctx context.Context, operatorToken, scanned string) (*models.ScanResult, error) {
	if err := v.guard.Authorize(ctx, operatorToken); err != nil {
		return nil, err
	}

	payload, err := ParsePayload(scanned)
	if err != nil {
		return nil, err
	}

	ticket, err := v.store.FindByToken(ctx, payload.QRToken)
	if err != nil {
		return nil, fmt.Errorf("store.FindByToken: %w", err)
	}

	if ticket.IsScanned {
		return v.report(ctx, duplicate(ticket)), nil
	}

	now := v.now().UTC()
	won, err := v.store.MarkScanned(ctx, ticket.QRToken, now)
	if err != nil {
		return nil, fmt.Errorf("store.MarkScanned: %w", err)
	}
	if !won {
		slog.Warn("concurrent scan lost", "ticket_id", ticket.TicketID)
		if winner, err := v.store.FindByToken(ctx, ticket.QRToken); err == nil {
			ticket = winner
		} else {
			slog.Error("v.store.FindByToken()", "ticket_id", ticket.TicketID, "error", err)
		}
		return v.report(ctx, duplicate(ticket)), nil
	}

	result := &models.ScanResult{
		Outcome:     models.ScanApproved,
		TicketID:    ticket.TicketID,
		HolderName:  ticket.HolderName,
		HolderPhone: ticket.HolderPhone,
		PricePaid:   ticket.PricePaid,
		EntryTime:   &now,
	}

	return v.report(ctx, result), nil
}

func (v *EntryValidator) report(ctx context.Context, result *models.ScanResult) *models.ScanResult {
	if err := v.notifier.TicketScanned(ctx, result); err != nil {
		slog.Error("v.notifier.TicketScanned()", "ticket_id", result.TicketID, "error", err)
	}
	return result
}

func duplicate(t *models.Ticket) *models.ScanResult {
	return &models.ScanResult{
		Outcome:    models.ScanDuplicate,
		TicketID:   t.TicketID,
		HolderName: t.HolderName,
		EntryTime:  t.ScannedAt,
	}
}
