package pbstore

import (
	"context"
	"fmt"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/pocketbase/pocketbase/core"
)

func (s *Store) Append(ctx context.Context, entry models.LoginAudit) error {
	col, err := s.app.FindCollectionByNameOrId(CollectionLoginAudit)
	if err != nil {
		return fmt.Errorf("%w: FindCollectionByNameOrId: %v", status.ErrUpstreamUnavailable, err)
	}

	rec := core.NewRecord(col)
	rec.Set("user_type", entry.UserType)
	rec.Set("email", entry.Email)
	rec.Set("session_token", entry.SessionToken)
	rec.Set("login_time", entry.LoginTime.UTC())

	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return fmt.Errorf("%w: save login audit: %v", status.ErrUpstreamUnavailable, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.LoginAudit, error) {
	records, err := s.app.FindRecordsByFilter(CollectionLoginAudit, "id != ''", "-login_time", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: FindRecordsByFilter: %v", status.ErrUpstreamUnavailable, err)
	}

	out := make([]models.LoginAudit, 0, len(records))
	for _, rec := range records {
		out = append(out, models.LoginAudit{
			UserType:     rec.GetString("user_type"),
			Email:        rec.GetString("email"),
			SessionToken: rec.GetString("session_token"),
			LoginTime:    rec.GetDateTime("login_time").Time(),
		})
	}
	return out, nil
}
