package memstore

import (
	"context"
	"crypto/subtle"
	"strings"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"golang.org/x/crypto/bcrypt"
)

// EnvOperator is a single admin configured by email and bcrypt hash.
type EnvOperator struct {
	email string
	hash  []byte
}

func NewEnvOperator(email, passwordHash string) *EnvOperator {
	return &EnvOperator{
		email: strings.ToLower(strings.TrimSpace(email)),
		hash:  []byte(passwordHash),
	}
}

// Configured reports whether both email and hash are set.
func (o *EnvOperator) Configured() bool {
	return o.email != "" && len(o.hash) > 0
}

func (o *EnvOperator) Authenticate(ctx context.Context, email, password string) (*models.Operator, error) {
	if !o.Configured() {
		return nil, status.ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(o.email)) == 1
	passOK := bcrypt.CompareHashAndPassword(o.hash, []byte(password)) == nil
	if !emailOK || !passOK {
		return nil, status.ErrInvalidCredentials
	}

	return &models.Operator{ID: "env:" + o.email, Email: o.email, Role: "admin"}, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Directories tries each operator directory in turn.
type Directories []interface {
	Authenticate(ctx context.Context, email, password string) (*models.Operator, error)
}

func (d Directories) Authenticate(ctx context.Context, email, password string) (*models.Operator, error) {
	for _, dir := range d {
		op, err := dir.Authenticate(ctx, email, password)
		if err == nil {
			return op, nil
		}
	}
	return nil, status.ErrInvalidCredentials
}
