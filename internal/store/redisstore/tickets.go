package redisstore

import (
	"context"
	"fmt"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const ticketFieldCount = 8

// KEYS: payment list, total counter, revenue counter, then a ticket hash and
// a ticket id claim per ticket.
// ARGV: ticket count, revenue in minor units, then ticketFieldCount values
// per ticket.
const createBatchScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 'EXISTS'
end

local n = tonumber(ARGV[1])
for i = 0, n - 1 do
	if redis.call('EXISTS', KEYS[4 + 2 * i]) == 1 or redis.call('EXISTS', KEYS[5 + 2 * i]) == 1 then
		return 'COLLISION'
	end
end

for i = 0, n - 1 do
	local a = 3 + i * 8
	redis.call('HSET', KEYS[4 + 2 * i],
		'ticket_id', ARGV[a],
		'qr_token', ARGV[a + 1],
		'name', ARGV[a + 2],
		'phone', ARGV[a + 3],
		'price', ARGV[a + 4],
		'payment_id', ARGV[a + 5],
		'order_id', ARGV[a + 6],
		'created_at', ARGV[a + 7],
		'is_scanned', '0')
	redis.call('SET', KEYS[5 + 2 * i], ARGV[a + 1])
	redis.call('RPUSH', KEYS[1], ARGV[a + 1])
end

redis.call('INCRBY', KEYS[2], n)
redis.call('INCRBY', KEYS[3], ARGV[2])
return 'OK'
`

// KEYS: ticket hash, scanned counter. ARGV: scanned_at.
// Returns 1 when this call flipped the ticket, 0 when it was already
// scanned and -1 when the ticket does not exist.
const markScannedScript = `
local s = redis.call('HGET', KEYS[1], 'is_scanned')
if not s then
	return -1
end
if s == '1' then
	return 0
end
redis.call('HSET', KEYS[1], 'is_scanned', '1', 'scanned_at', ARGV[1])
redis.call('INCR', KEYS[2])
return 1
`

func (s *Store) CreateBatch(ctx context.Context, paymentID string, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return fmt.Errorf("%w: empty ticket batch", status.ErrValidation)
	}

	keys := make([]string, 0, 3+2*len(tickets))
	keys = append(keys, s.paymentKey(paymentID), s.statKey("total"), s.statKey("revenue_minor"))

	revenue := decimal.Zero
	args := make([]any, 0, 2+ticketFieldCount*len(tickets))
	for _, t := range tickets {
		revenue = revenue.Add(t.PricePaid)
	}
	args = append(args, len(tickets), revenue.Shift(2).Round(0).IntPart())

	for _, t := range tickets {
		keys = append(keys, s.ticketKey(t.QRToken), s.ticketIDKey(t.TicketID))
		args = append(args,
			t.TicketID,
			t.QRToken,
			t.HolderName,
			t.HolderPhone,
			t.PricePaid.String(),
			paymentID,
			t.OrderID,
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
	}

	res, err := s.rdb.Eval(ctx, createBatchScript, keys, args...).Text()
	if err != nil {
		return fmt.Errorf("%w: createBatchScript: %v", status.ErrUpstreamUnavailable, err)
	}

	switch res {
	case "OK":
		return nil
	case "EXISTS":
		return fmt.Errorf("payment %s: %w", paymentID, status.ErrIssuanceExists)
	case "COLLISION":
		return fmt.Errorf("payment %s: %w", paymentID, status.ErrCodeCollision)
	default:
		return fmt.Errorf("%w: createBatchScript: unexpected reply %q", status.ErrUpstreamUnavailable, res)
	}
}

// FindByPayment returns the payment's tickets in issuance order.
func (s *Store) FindByPayment(ctx context.Context, paymentID string) ([]models.Ticket, error) {
	tokens, err := s.rdb.LRange(ctx, s.paymentKey(paymentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: LRANGE: %v", status.ErrUpstreamUnavailable, err)
	}
	if len(tokens) == 0 {
		return []models.Ticket{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(tokens))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, tok := range tokens {
			cmds[i] = pipe.HGetAll(ctx, s.ticketKey(tok))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: HGETALL: %v", status.ErrUpstreamUnavailable, err)
	}

	tickets := make([]models.Ticket, 0, len(tokens))
	for i, cmd := range cmds {
		t, err := decodeTicket(cmd.Val())
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", tokens[i], err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, nil
}

func (s *Store) FindByToken(ctx context.Context, qrToken string) (*models.Ticket, error) {
	fields, err := s.rdb.HGetAll(ctx, s.ticketKey(qrToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: HGETALL: %v", status.ErrUpstreamUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, status.ErrTicketNotFound
	}
	return decodeTicket(fields)
}

func (s *Store) MarkScanned(ctx context.Context, qrToken string, at time.Time) (bool, error) {
	res, err := s.rdb.Eval(ctx, markScannedScript,
		[]string{s.ticketKey(qrToken), s.statKey("scanned")},
		at.UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: markScannedScript: %v", status.ErrUpstreamUnavailable, err)
	}

	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, status.ErrTicketNotFound
	}
}

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	vals, err := s.rdb.MGet(ctx, s.statKey("total"), s.statKey("scanned"), s.statKey("revenue_minor")).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: MGET: %v", status.ErrUpstreamUnavailable, err)
	}

	n := make([]int64, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if _, err := fmt.Sscan(fmt.Sprint(v), &n[i]); err != nil {
			return nil, fmt.Errorf("stats counter %d: %w", i, err)
		}
	}

	return &models.Stats{
		TotalTickets:   n[0],
		TicketsScanned: n[1],
		PendingEntries: n[0] - n[1],
		TotalRevenue:   decimal.NewFromInt(n[2]).Shift(-2),
	}, nil
}

func decodeTicket(f map[string]string) (*models.Ticket, error) {
	price, err := decimal.NewFromString(f["price"])
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, f["created_at"])
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	t := &models.Ticket{
		TicketID:    f["ticket_id"],
		QRToken:     f["qr_token"],
		HolderName:  f["name"],
		HolderPhone: f["phone"],
		PricePaid:   price,
		PaymentID:   f["payment_id"],
		OrderID:     f["order_id"],
		IsScanned:   f["is_scanned"] == "1",
		CreatedAt:   createdAt,
	}

	if raw := f["scanned_at"]; raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("scanned_at: %w", err)
		}
		t.ScannedAt = &at
	}

	return t, nil
}
