// Package pbstore keeps tickets, issuance claims, operators and the login
// audit in PocketBase collections.
package pbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
)

const (
	CollectionTickets    = "tickets"
	CollectionIssuances  = "ticket_issuances"
	CollectionOperators  = "operators"
	CollectionLoginAudit = "login_audits"
)

type Store struct {
	app core.App
}

func New(app core.App) *Store {
	return &Store{app: app}
}

// CreateBatch claims paymentID in ticket_issuances and inserts the tickets in
// one transaction. The unique indexes on payment_id, ticket_id and qr_token
// back the checks made inside the transaction.
func (s *Store) CreateBatch(ctx context.Context, paymentID string, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return fmt.Errorf("%w: empty ticket batch", status.ErrValidation)
	}

	err := s.app.RunInTransaction(func(txApp core.App) error {
		claimed, err := txApp.CountRecords(CollectionIssuances, dbx.HashExp{"payment_id": paymentID})
		if err != nil {
			return err
		}
		if claimed > 0 {
			return status.ErrIssuanceExists
		}

		ids := make([]any, len(tickets))
		tokens := make([]any, len(tickets))
		for i, t := range tickets {
			ids[i] = t.TicketID
			tokens[i] = t.QRToken
		}
		taken, err := txApp.CountRecords(CollectionTickets, dbx.Or(dbx.In("ticket_id", ids...), dbx.In("qr_token", tokens...)))
		if err != nil {
			return err
		}
		if taken > 0 {
			return status.ErrCodeCollision
		}

		issuances, err := txApp.FindCollectionByNameOrId(CollectionIssuances)
		if err != nil {
			return err
		}
		claim := core.NewRecord(issuances)
		claim.Set("payment_id", paymentID)
		claim.Set("order_id", tickets[0].OrderID)
		claim.Set("quantity", len(tickets))
		if err := txApp.SaveWithContext(ctx, claim); err != nil {
			if isUniqueViolation(err) {
				return status.ErrIssuanceExists
			}
			return err
		}

		col, err := txApp.FindCollectionByNameOrId(CollectionTickets)
		if err != nil {
			return err
		}
		for i, t := range tickets {
			rec := core.NewRecord(col)
			rec.Set("ticket_id", t.TicketID)
			rec.Set("qr_token", t.QRToken)
			rec.Set("holder_name", t.HolderName)
			rec.Set("holder_phone", t.HolderPhone)
			rec.Set("price_paid", t.PricePaid.String())
			rec.Set("payment_id", paymentID)
			rec.Set("order_id", t.OrderID)
			rec.Set("seq", i+1)
			rec.Set("is_scanned", false)
			rec.Set("created_at", t.CreatedAt.UTC())

			if err := txApp.SaveWithContext(ctx, rec); err != nil {
				if isUniqueViolation(err) {
					return status.ErrCodeCollision
				}
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, status.ErrStorageConflict):
		return fmt.Errorf("payment %s: %w", paymentID, err)
	default:
		return fmt.Errorf("%w: CreateBatch: %v", status.ErrUpstreamUnavailable, err)
	}
}

// FindByPayment returns the payment's tickets in issuance order.
func (s *Store) FindByPayment(ctx context.Context, paymentID string) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionTickets,
		"payment_id = {:payment}",
		"seq",
		0,
		0,
		dbx.Params{"payment": paymentID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: FindRecordsByFilter: %v", status.ErrUpstreamUnavailable, err)
	}

	tickets := make([]models.Ticket, 0, len(records))
	for _, rec := range records {
		t, err := toTicket(rec)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, nil
}

func (s *Store) FindByToken(ctx context.Context, qrToken string) (*models.Ticket, error) {
	rec, err := s.app.FindFirstRecordByData(CollectionTickets, "qr_token", qrToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindFirstRecordByData: %v", status.ErrUpstreamUnavailable, err)
	}
	return toTicket(rec)
}

// MarkScanned is a conditional update on is_scanned, so only one of several
// concurrent calls changes the row.
func (s *Store) MarkScanned(ctx context.Context, qrToken string, at time.Time) (bool, error) {
	scannedAt, err := types.ParseDateTime(at.UTC())
	if err != nil {
		return false, fmt.Errorf("types.ParseDateTime: %w", err)
	}

	res, err := s.app.NonconcurrentDB().Update(
		CollectionTickets,
		dbx.Params{"is_scanned": true, "scanned_at": scannedAt.String()},
		dbx.HashExp{"qr_token": qrToken, "is_scanned": false},
	).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("%w: update tickets: %v", status.ErrUpstreamUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: RowsAffected: %v", status.ErrUpstreamUnavailable, err)
	}
	if n == 1 {
		return true, nil
	}

	if _, err := s.FindByToken(ctx, qrToken); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var rows []struct {
		Price   string `db:"price_paid"`
		Count   int64  `db:"n"`
		Scanned int64  `db:"scanned"`
	}
	err := s.app.DB().
		Select("price_paid", "COUNT(*) AS n", "COALESCE(SUM(is_scanned), 0) AS scanned").
		From(CollectionTickets).
		GroupBy("price_paid").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("%w: stats query: %v", status.ErrUpstreamUnavailable, err)
	}

	st := &models.Stats{TotalRevenue: decimal.Zero}
	for _, r := range rows {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("price_paid %q: %w", r.Price, err)
		}
		st.TotalTickets += r.Count
		st.TicketsScanned += r.Scanned
		st.TotalRevenue = st.TotalRevenue.Add(price.Mul(decimal.NewFromInt(r.Count)))
	}
	st.PendingEntries = st.TotalTickets - st.TicketsScanned
	return st, nil
}

func toTicket(rec *core.Record) (*models.Ticket, error) {
	price, err := decimal.NewFromString(rec.GetString("price_paid"))
	if err != nil {
		return nil, fmt.Errorf("ticket %s: price_paid: %w", rec.Id, err)
	}

	t := &models.Ticket{
		TicketID:    rec.GetString("ticket_id"),
		QRToken:     rec.GetString("qr_token"),
		HolderName:  rec.GetString("holder_name"),
		HolderPhone: rec.GetString("holder_phone"),
		PricePaid:   price,
		PaymentID:   rec.GetString("payment_id"),
		OrderID:     rec.GetString("order_id"),
		IsScanned:   rec.GetBool("is_scanned"),
		CreatedAt:   rec.GetDateTime("created_at").Time(),
	}

	if at := rec.GetDateTime("scanned_at"); !at.IsZero() {
		ts := at.Time()
		t.ScannedAt = &ts
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "validation_not_unique") ||
		strings.Contains(msg, "must be unique")
}
