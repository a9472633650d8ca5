package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/internal/store/memstore"
	"festival-tickets/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Append(ctx context.Context, entry models.LoginAudit) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAudit) List(ctx context.Context, limit int) ([]models.LoginAudit, error) {
	args := m.Called(ctx, limit)
	l, _ := args.Get(0).([]models.LoginAudit)
	return l, args.Error(1)
}

func TestSessionGuard_LoginRecordsAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.login(t)
	assert.Len(t, token, 2*sessionTokenBytes)
	require.NoError(t, f.guard.Authorize(ctx, token))

	logs, err := f.reporting.Logins(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, testEmail, logs[0].Email)
	assert.Equal(t, "admin", logs[0].UserType)
	assert.Equal(t, token, logs[0].SessionToken)
}

func TestSessionGuard_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.guard.Login(ctx, "", testPassword)
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = f.guard.Login(ctx, testEmail, "  ")
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = f.guard.Login(ctx, testEmail, "wrong")
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	_, err = f.guard.Login(ctx, "other@example.com", testPassword)
	assert.ErrorIs(t, err, status.ErrInvalidCredentials)

	logs, err := f.reporting.Logins(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSessionGuard_AuditFailureRevokesSession(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	audit := &mockAudit{}
	audit.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	sessions := memstore.NewSessions()
	guard := NewSessionGuard(sessions, memstore.NewEnvOperator(testEmail, string(hash)), audit, time.Hour)

	token, err := guard.Login(context.Background(), testEmail, testPassword)
	require.Error(t, err)
	assert.Empty(t, token)

	entry := audit.Calls[0].Arguments.Get(1).(models.LoginAudit)
	ok, err := sessions.Check(context.Background(), entry.SessionToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionGuard_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.login(t)
	require.NoError(t, f.guard.Logout(ctx, token))
	assert.ErrorIs(t, f.guard.Authorize(ctx, token), status.ErrUnauthorized)

	assert.ErrorIs(t, f.guard.Logout(ctx, ""), status.ErrUnauthorized)
}

func TestSessionGuard_SessionsExpire(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	audit := &mockAudit{}
	audit.On("Append", mock.Anything, mock.Anything).Return(nil)
	guard := NewSessionGuard(memstore.NewSessions(), memstore.NewEnvOperator(testEmail, string(hash)), audit, 10*time.Millisecond)

	token, err := guard.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, guard.Authorize(context.Background(), token))

	time.Sleep(30 * time.Millisecond)
	assert.ErrorIs(t, guard.Authorize(context.Background(), token), status.ErrUnauthorized)
}
