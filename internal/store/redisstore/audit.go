package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"festival-tickets/internal/status"
	"festival-tickets/models"
)

func (s *Store) Append(ctx context.Context, entry models.LoginAudit) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.rdb.LPush(ctx, s.auditKey(), b).Err(); err != nil {
		return fmt.Errorf("%w: LPUSH audit: %v", status.ErrUpstreamUnavailable, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]models.LoginAudit, error) {
	raw, err := s.rdb.LRange(ctx, s.auditKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: LRANGE audit: %v", status.ErrUpstreamUnavailable, err)
	}

	out := make([]models.LoginAudit, 0, len(raw))
	for _, r := range raw {
		var entry models.LoginAudit
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}
