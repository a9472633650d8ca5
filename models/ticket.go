package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	TicketID    string          `json:"ticket_id"`
	QRToken     string          `json:"qr_token"`
	HolderName  string          `json:"name"`
	HolderPhone string          `json:"phone"`
	PricePaid   decimal.Decimal `json:"price_per_ticket"`
	PaymentID   string          `json:"payment_id"`
	OrderID     string          `json:"order_id"`
	IsScanned   bool            `json:"is_scanned"`
	ScannedAt   *time.Time      `json:"scanned_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CodePayload is the structure encoded into a ticket's scannable code.
// It deliberately carries no price or phone.
type CodePayload struct {
	TicketID  string `json:"ticket_id"`
	QRToken   string `json:"qr_token"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

type Stats struct {
	TotalTickets   int64           `json:"total_tickets_sold"`
	TicketsScanned int64           `json:"tickets_scanned"`
	PendingEntries int64           `json:"pending_entries"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// PurchaseSummary is the confirmation view of one payment's tickets.
type PurchaseSummary struct {
	PaymentID string          `json:"payment_id"`
	OrderID   string          `json:"order_id"`
	Tickets   []Ticket        `json:"tickets"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}
