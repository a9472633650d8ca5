// Package memstore holds process-local state for single-instance
// deployments: operator sessions and an operator configured from env.
package memstore

import (
	"context"
	"sync"
	"time"

	"festival-tickets/models"
)

type sessionEntry struct {
	session   models.AdminSession
	expiresAt time.Time
}

// Sessions is an in-memory session store. Expired entries are dropped on
// access and by Sweep.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

// Create stores the session for ttl. A zero ttl keeps it until revoked.
func (s *Sessions) Create(ctx context.Context, token string, session models.AdminSession, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.sessions[token] = sessionEntry{session: session, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *Sessions) Check(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if entry.expired(s.now()) {
		_ = s.Revoke(ctx, token)
		return false, nil
	}
	return entry.session.Active, nil
}

func (s *Sessions) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
