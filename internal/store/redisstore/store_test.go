package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ""), mr
}

func batch(paymentID string, n int) []models.Ticket {
	created := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	out := make([]models.Ticket, n)
	for i := range out {
		out[i] = models.Ticket{
			TicketID:    fmt.Sprintf("MONA-20250314-%s-%02d", paymentID, i+1),
			QRToken:     fmt.Sprintf("%s-token-%d", paymentID, i),
			HolderName:  "Asha",
			HolderPhone: "9999",
			PricePaid:   decimal.NewFromInt(100),
			PaymentID:   paymentID,
			OrderID:     "order_1",
			CreatedAt:   created,
		}
	}
	return out
}

func TestCreateBatch_AndFind(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 3)))

	tickets, err := s.FindByPayment(ctx, "pay_1")
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	for i, tk := range tickets {
		assert.Equal(t, fmt.Sprintf("pay_1-token-%d", i), tk.QRToken)
		assert.Equal(t, "pay_1", tk.PaymentID)
		assert.True(t, decimal.NewFromInt(100).Equal(tk.PricePaid))
		assert.False(t, tk.IsScanned)
		assert.Nil(t, tk.ScannedAt)
	}

	tk, err := s.FindByToken(ctx, "pay_1-token-1")
	require.NoError(t, err)
	assert.Equal(t, "MONA-20250314-pay_1-02", tk.TicketID)
	assert.Equal(t, "order_1", tk.OrderID)
}

func TestFindByPayment_Empty(t *testing.T) {
	s, _ := setupStore(t)

	tickets, err := s.FindByPayment(context.Background(), "pay_none")
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestCreateBatch_PaymentAlreadyIssued(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 2)))

	second := batch("pay_1", 2)
	for i := range second {
		second[i].QRToken += "-again"
		second[i].TicketID += "-again"
	}
	err := s.CreateBatch(ctx, "pay_1", second)
	assert.ErrorIs(t, err, status.ErrIssuanceExists)

	tickets, err := s.FindByPayment(ctx, "pay_1")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestCreateBatch_CollisionWritesNothing(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 1)))

	// second ticket reuses a ticket id that already exists
	b := batch("pay_2", 2)
	b[1].TicketID = "MONA-20250314-pay_1-01"

	err := s.CreateBatch(ctx, "pay_2", b)
	assert.ErrorIs(t, err, status.ErrCodeCollision)

	assert.False(t, mr.Exists(s.paymentKey("pay_2")))
	assert.False(t, mr.Exists(s.ticketKey("pay_2-token-0")))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalTickets)
}

func TestCreateBatch_ConcurrentSamePayment(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	const workers = 10
	var wins atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			b := batch("pay_1", 3)
			for i := range b {
				b[i].QRToken = fmt.Sprintf("w%d-%d", w, i)
				b[i].TicketID = fmt.Sprintf("T-%d-%d", w, i)
			}
			err := s.CreateBatch(ctx, "pay_1", b)
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, status.ErrIssuanceExists)
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	tickets, err := s.FindByPayment(ctx, "pay_1")
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestMarkScanned_Once(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 1)))

	at := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	won, err := s.MarkScanned(ctx, "pay_1-token-0", at)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = s.MarkScanned(ctx, "pay_1-token-0", at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, won)

	tk, err := s.FindByToken(ctx, "pay_1-token-0")
	require.NoError(t, err)
	assert.True(t, tk.IsScanned)
	require.NotNil(t, tk.ScannedAt)
	assert.True(t, at.Equal(*tk.ScannedAt))
}

func TestMarkScanned_Concurrent(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 1)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.MarkScanned(ctx, "pay_1-token-0", time.Now())
			assert.NoError(t, err)
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TicketsScanned)
}

func TestMarkScanned_UnknownToken(t *testing.T) {
	s, _ := setupStore(t)

	_, err := s.MarkScanned(context.Background(), "nope", time.Now())
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	_, err = s.FindByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestStats(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TotalTickets)
	assert.True(t, st.TotalRevenue.IsZero())

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 3)))
	b := batch("pay_2", 2)
	for i := range b {
		b[i].PricePaid = decimal.RequireFromString("249.50")
	}
	require.NoError(t, s.CreateBatch(ctx, "pay_2", b))
	_, err = s.MarkScanned(ctx, "pay_1-token-0", time.Now())
	require.NoError(t, err)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.TotalTickets)
	assert.Equal(t, int64(1), st.TicketsScanned)
	assert.Equal(t, int64(4), st.PendingEntries)
	assert.Equal(t, "799", st.TotalRevenue.String())
}

func TestSessions(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "tok", models.AdminSession{OperatorID: "op1", CreatedAt: time.Now(), Active: true}, time.Hour))

	ok, err := s.Check(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Check(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = s.Check(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessions_Revoke(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "tok", models.AdminSession{Active: true}, 0))
	require.NoError(t, s.Revoke(ctx, "tok"))

	ok, err := s.Check(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAudit_NewestFirst(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, models.LoginAudit{
			UserType:  "admin",
			Email:     fmt.Sprintf("op%d@example.com", i),
			LoginTime: time.Date(2025, 3, 14, 10, i, 0, 0, time.UTC),
		}))
	}

	logs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "op2@example.com", logs[0].Email)
	assert.Equal(t, "op1@example.com", logs[1].Email)
}

func TestRedisErrorsAreUpstream(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db, "")
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectHGetAll(s.ticketKey("tok")).SetErr(boom)
	_, err := s.FindByToken(ctx, "tok")
	assert.ErrorIs(t, err, status.ErrUpstreamUnavailable)

	mock.ExpectEval(markScannedScript, []string{s.ticketKey("tok"), s.statKey("scanned")}, "2025-03-15T18:30:00Z").SetErr(boom)
	_, err = s.MarkScanned(ctx, "tok", time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC))
	assert.ErrorIs(t, err, status.ErrUpstreamUnavailable)

	mock.ExpectGet(s.sessionKey("tok")).SetErr(boom)
	_, err = s.Check(ctx, "tok")
	assert.ErrorIs(t, err, status.ErrUpstreamUnavailable)

	mock.ExpectLRange(s.paymentKey("pay_1"), 0, -1).SetErr(boom)
	_, err = s.FindByPayment(ctx, "pay_1")
	assert.ErrorIs(t, err, status.ErrUpstreamUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkScanned_ScriptReplies(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db, "")
	ctx := context.Background()
	at := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	keys := []string{s.ticketKey("tok"), s.statKey("scanned")}

	mock.ExpectEval(markScannedScript, keys, "2025-03-15T18:30:00Z").SetVal(int64(1))
	won, err := s.MarkScanned(ctx, "tok", at)
	require.NoError(t, err)
	assert.True(t, won)

	mock.ExpectEval(markScannedScript, keys, "2025-03-15T18:30:00Z").SetVal(int64(0))
	won, err = s.MarkScanned(ctx, "tok", at)
	require.NoError(t, err)
	assert.False(t, won)

	assert.NoError(t, mock.ExpectationsWereMet())
}
