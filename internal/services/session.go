package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"
	"festival-tickets/utils"
)

const sessionTokenBytes = 32

// SessionGuard issues and checks operator session tokens.
type SessionGuard struct {
	sessions  SessionStore
	operators OperatorDirectory
	audit     LoginAuditLog
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionGuard(sessions SessionStore, operators OperatorDirectory, audit LoginAuditLog, ttl time.Duration) *SessionGuard {
	return &SessionGuard{
		sessions:  sessions,
		operators: operators,
		audit:     audit,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Login checks the credentials and returns a new session token. The login is
// recorded in the audit log; if that fails the session is revoked again.
func (g *SessionGuard) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", status.ErrValidation)
	}

	op, err := g.operators.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := utils.GenerateToken(sessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("utils.GenerateToken: %w", err)
	}

	now := g.now().UTC()
	err = g.sessions.Create(ctx, token, models.AdminSession{
		OperatorID: op.ID,
		CreatedAt:  now,
		Active:     true,
	}, g.ttl)
	if err != nil {
		return "", fmt.Errorf("sessions.Create: %w", err)
	}

	err = g.audit.Append(ctx, models.LoginAudit{
		UserType:     op.Role,
		Email:        op.Email,
		SessionToken: token,
		LoginTime:    now,
	})
	if err != nil {
		if rerr := g.sessions.Revoke(ctx, token); rerr != nil {
			slog.Error("g.sessions.Revoke()", "email", op.Email, "error", rerr)
		}
		return "", fmt.Errorf("audit.Append: %w", err)
	}

	slog.Info("operator login", "email", op.Email, "role", op.Role)
	return token, nil
}

// Authorize returns status.ErrUnauthorized unless token is an active session.
func (g *SessionGuard) Authorize(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing session token", status.ErrUnauthorized)
	}

	ok, err := g.sessions.Check(ctx, token)
	if err != nil {
		return fmt.Errorf("sessions.Check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: unknown or expired session", status.ErrUnauthorized)
	}
	return nil
}

func (g *SessionGuard) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing session token", status.ErrUnauthorized)
	}
	if err := g.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("sessions.Revoke: %w", err)
	}
	return nil
}
