package pbstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"festival-tickets/internal/status"
	_ "festival-tickets/migrations"
	"festival-tickets/models"

	"github.com/pocketbase/pocketbase/tests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	return New(app)
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
			OrderID:     "order_" + paymentID,
			CreatedAt:   created,
		}
	}
	return out
}

func TestCreateBatch_AndFind(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 3)))

	tickets, err := s.FindByPayment(ctx, "pay_1")
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	for i, tk := range tickets {
		assert.Equal(t, fmt.Sprintf("pay_1-token-%d", i), tk.QRToken)
		assert.True(t, decimal.NewFromInt(100).Equal(tk.PricePaid))
		assert.False(t, tk.IsScanned)
	}

	tk, err := s.FindByToken(ctx, "pay_1-token-2")
	require.NoError(t, err)
	assert.Equal(t, "MONA-20250314-pay_1-03", tk.TicketID)

	_, err = s.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestCreateBatch_Conflicts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 2)))

	again := batch("pay_1", 2)
	for i := range again {
		again[i].QRToken += "-x"
		again[i].TicketID += "-x"
	}
	assert.ErrorIs(t, s.CreateBatch(ctx, "pay_1", again), status.ErrIssuanceExists)

	clash := batch("pay_2", 2)
	clash[1].QRToken = "pay_1-token-0"
	assert.ErrorIs(t, s.CreateBatch(ctx, "pay_2", clash), status.ErrCodeCollision)

	// nothing of the failed batch was written
	tickets, err := s.FindByPayment(ctx, "pay_2")
	require.NoError(t, err)
	assert.Empty(t, tickets)

	require.NoError(t, s.CreateBatch(ctx, "pay_2", batch("pay_2", 2)))
}

func TestCreateBatch_Concurrent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			b := batch("pay_1", 2)
			for i := range b {
				b[i].QRToken = fmt.Sprintf("w%d-%d", w, i)
				b[i].TicketID = fmt.Sprintf("T-%d-%d", w, i)
			}
			if err := s.CreateBatch(ctx, "pay_1", b); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, status.ErrIssuanceExists)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	tickets, err := s.FindByPayment(ctx, "pay_1")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestMarkScanned(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 1)))

	at := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	won, err := s.MarkScanned(ctx, "pay_1-token-0", at)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = s.MarkScanned(ctx, "pay_1-token-0", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, won)

	tk, err := s.FindByToken(ctx, "pay_1-token-0")
	require.NoError(t, err)
	assert.True(t, tk.IsScanned)
	require.NotNil(t, tk.ScannedAt)
	assert.True(t, at.Equal(*tk.ScannedAt))

	_, err = s.MarkScanned(ctx, "missing", at)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestMarkScanned_Concurrent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 1)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
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
}

func TestStats(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, "pay_1", batch("pay_1", 3)))
	_, err := s.MarkScanned(ctx, "pay_1-token-1", time.Now())
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalTickets)
	assert.Equal(t, int64(1), st.TicketsScanned)
	assert.Equal(t, int64(2), st.PendingEntries)
	assert.Equal(t, "300", st.TotalRevenue.String())
}

func TestOperators(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.CreateOperator(ctx, "gate@example.com", "s3cret-pass", RoleAdmin)
	require.NoError(t, err)

	op, err := s.Authenticate(ctx, "gate@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "gate@example.com", op.Email)
	assert.Equal(t, RoleAdmin, op.Role)

	_, err = s.Authenticate(ctx, "gate@example.com", "wrong-pass")
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestLoginAudit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, models.LoginAudit{
			UserType:     RoleAdmin,
			Email:        fmt.Sprintf("op%d@example.com", i),
			SessionToken: fmt.Sprintf("tok%d", i),
			LoginTime:    time.Date(2025, 3, 14, 10, i, 0, 0, time.UTC),
		}))
	}

	logs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "op2@example.com", logs[0].Email)
	assert.Equal(t, "tok2", logs[0].SessionToken)
}
