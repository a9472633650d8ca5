package services

import (
	"context"
	"time"

	"festival-tickets/models"
)

// TicketStore persists tickets. Implementations must be safe for use by
// several service instances at once: CreateBatch and MarkScanned are the two
// coordination points and are enforced by the store, not by callers.
type TicketStore interface {
	// FindByPayment returns the tickets issued for paymentID in issuance
	// order, or an empty slice.
	FindByPayment(ctx context.Context, paymentID string) ([]models.Ticket, error)

	// CreateBatch writes all tickets of one payment or none of them. It fails
	// with status.ErrIssuanceExists when paymentID already has a batch and
	// with status.ErrCodeCollision when a ticket id or qr token is taken.
	CreateBatch(ctx context.Context, paymentID string, tickets []models.Ticket) error

	// FindByToken returns status.ErrTicketNotFound for unknown tokens.
	FindByToken(ctx context.Context, qrToken string) (*models.Ticket, error)

	// MarkScanned sets is_scanned and scanned_at only if the ticket is not
	// scanned yet. It reports false when another scan got there first.
	MarkScanned(ctx context.Context, qrToken string, at time.Time) (bool, error)

	Stats(ctx context.Context) (*models.Stats, error)
}

// SessionStore holds operator sessions.
type SessionStore interface {
	Create(ctx context.Context, token string, session models.AdminSession, ttl time.Duration) error
	Check(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

// OperatorDirectory checks operator credentials. Authenticate returns
// status.ErrInvalidCredentials on any mismatch.
type OperatorDirectory interface {
	Authenticate(ctx context.Context, email, password string) (*models.Operator, error)
}

// LoginAuditLog is the append-only record of operator logins. List returns
// the newest entries first.
type LoginAuditLog interface {
	Append(ctx context.Context, entry models.LoginAudit) error
	List(ctx context.Context, limit int) ([]models.LoginAudit, error)
}

// Notifier receives domain events after they are committed. Failures are
// logged by the caller and never undo the committed change.
type Notifier interface {
	TicketsIssued(ctx context.Context, tickets []models.Ticket) error
	TicketScanned(ctx context.Context, result *models.ScanResult) error
}

type nopNotifier struct{}

func (nopNotifier) TicketsIssued(context.Context, []models.Ticket) error    { return nil }
func (nopNotifier) TicketScanned(context.Context, *models.ScanResult) error { return nil }
