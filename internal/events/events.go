// Package events delivers ticket lifecycle events to the admin dashboard
// and the event stream once they are committed.
package events

import (
	"context"
	"errors"
	"time"

	"festival-tickets/models"
)

const (
	TypeTicketsIssued = "ticket.issued"
	TypeTicketScanned = "ticket.scanned"
)

// Event is the message body published to every sink.
type Event struct {
	Type      string    `json:"event"`
	PaymentID string    `json:"payment_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	TicketIDs []string  `json:"ticket_ids,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Holder    string    `json:"holder_name,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	At        time.Time `json:"at"`
}

// Issued builds the event for a freshly issued batch.
func Issued(tickets []models.Ticket, at time.Time) *Event {
	e := &Event{Type: TypeTicketsIssued, Quantity: len(tickets), At: at.UTC()}
	for _, t := range tickets {
		e.TicketIDs = append(e.TicketIDs, t.TicketID)
	}
	if len(tickets) > 0 {
		e.PaymentID = tickets[0].PaymentID
		e.OrderID = tickets[0].OrderID
	}
	return e
}

// Scanned builds the event for a gate scan.
func Scanned(res *models.ScanResult, at time.Time) *Event {
	return &Event{
		Type:     TypeTicketScanned,
		TicketID: res.TicketID,
		Holder:   res.HolderName,
		Outcome:  string(res.Outcome),
		At:       at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e *Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
