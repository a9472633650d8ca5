package pbstore

import (
	"context"
	"fmt"
	"strings"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/pocketbase/pocketbase/core"
)

const RoleAdmin = "admin"

// Authenticate checks an operator from the operators auth collection. Only
// operators with the admin role may log in.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.Operator, error) {
	rec, err := s.app.FindAuthRecordByEmail(CollectionOperators, email)
	if err != nil {
		return nil, status.ErrInvalidCredentials
	}
	if !rec.ValidatePassword(password) || rec.GetString("role") != RoleAdmin {
		return nil, status.ErrInvalidCredentials
	}

	return &models.Operator{
		ID:    rec.Id,
		Email: rec.Email(),
		Role:  rec.GetString("role"),
	}, nil
}

// CreateOperator adds an operator account.
func (s *Store) CreateOperator(ctx context.Context, email, password, role string) (*models.Operator, error) {
	col, err := s.app.FindCollectionByNameOrId(CollectionOperators)
	if err != nil {
		return nil, fmt.Errorf("FindCollectionByNameOrId: %w", err)
	}

	rec := core.NewRecord(col)
	rec.SetEmail(strings.TrimSpace(email))
	rec.SetPassword(password)
	rec.SetVerified(true)
	rec.Set("role", role)

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrValidation, err)
	}

	return &models.Operator{ID: rec.Id, Email: rec.Email(), Role: role}, nil
}
