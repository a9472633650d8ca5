// Package redisstore keeps tickets, sessions and the login audit in Redis so
// several service instances can share them. Issuance and scanning run as Lua
// scripts, which Redis executes atomically.
package redisstore

import (
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "fest:"

type Store struct {
	rdb    redis.Cmdable
	prefix string
}

func New(rdb redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) ticketKey(qrToken string) string    { return s.prefix + "ticket:" + qrToken }
func (s *Store) ticketIDKey(ticketID string) string { return s.prefix + "ticketid:" + ticketID }
func (s *Store) paymentKey(paymentID string) string { return s.prefix + "payment:" + paymentID }
func (s *Store) sessionKey(token string) string     { return s.prefix + "session:" + token }
func (s *Store) statKey(name string) string         { return s.prefix + "stats:" + name }
func (s *Store) auditKey() string                   { return s.prefix + "audit:logins" }
