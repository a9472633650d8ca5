package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AdminSession struct {
	OperatorID string    `json:"operator_id"`
	CreatedAt  time.Time `json:"created_at"`
	Active     bool      `json:"active"`
}

// LoginAudit is an append-only record of a successful operator login.
type LoginAudit struct {
	UserType     string    `json:"user_type"`
	Email        string    `json:"email"`
	SessionToken string    `json:"session_token"`
	LoginTime    time.Time `json:"login_time"`
}

type ScanOutcome string

const (
	ScanApproved  ScanOutcome = "approved"
	ScanDuplicate ScanOutcome = "duplicate"
)

// ScanResult is returned for codes that resolved to a ticket. Rejections are
// reported as errors instead.
type ScanResult struct {
	Outcome     ScanOutcome     `json:"outcome"`
	TicketID    string          `json:"ticket_id"`
	HolderName  string          `json:"holder_name"`
	HolderPhone string          `json:"phone,omitempty"`
	PricePaid   decimal.Decimal `json:"price_paid,omitempty"`
	EntryTime   *time.Time      `json:"entry_time,omitempty"`
}

func (r *ScanResult) Approved() bool {
	return r != nil && r.Outcome == ScanApproved
}
