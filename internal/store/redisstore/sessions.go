package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"festival-tickets/internal/status"
	"festival-tickets/models"

	"github.com/redis/go-redis/v9"
)

// Create stores the session for ttl. A zero ttl keeps it until revoked.
func (s *Store) Create(ctx context.Context, token string, session models.AdminSession, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.rdb.Set(ctx, s.sessionKey(token), b, ttl).Err(); err != nil {
		return fmt.Errorf("%w: SET session: %v", status.ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *Store) Check(ctx context.Context, token string) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: GET session: %v", status.ErrUpstreamUnavailable, err)
	}

	var session models.AdminSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return false, nil
	}
	return session.Active, nil
}

func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("%w: DEL session: %v", status.ErrUpstreamUnavailable, err)
	}
	return nil
}
