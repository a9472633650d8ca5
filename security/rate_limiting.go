package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"festival-tickets/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed window counter kept in Redis.
type RateLimiter struct {
	redis  redis.Cmdable
	prefix string
	limit  int64
	window time.Duration

	clientKey func(e *core.RequestEvent) string
}

func NewRateLimiter(redisClient redis.Cmdable, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:     redisClient,
		prefix:    prefix,
		limit:     int64(limit),
		window:    window,
		clientKey: (*core.RequestEvent).RealIP,
	}
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	k := r.prefix + key
	count, err := r.redis.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: rate limit: %v", status.ErrUpstreamUnavailable, err)
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("%w: rate limit expire: %v", status.ErrUpstreamUnavailable, err)
		}
	}
	return count <= r.limit, nil
}

// LoginRateLimit limits login attempts per client IP. Redis failures let the
// request through.
func (r *RateLimiter) LoginRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ip := r.clientKey(e)
		ok, err := r.Allow(e.Request.Context(), ip)
		if err != nil {
			slog.Warn("login rate limit unavailable", "ip", ip, "error", err)
			return e.Next()
		}
		if !ok {
			slog.Warn("security: login rate limit exceeded", "ip", ip)
			return apis.NewTooManyRequestsError("Too many login attempts. Please try again later.", nil)
		}
		return e.Next()
	}
}

// OperatorToken returns the session token from the Authorization bearer
// header or X-Admin-Token.
func OperatorToken(e *core.RequestEvent) string {
	if h := e.Request.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(e.Request.Header.Get("X-Admin-Token"))
}

// RequireOperator rejects requests without an active operator session.
func RequireOperator(authorize func(ctx context.Context, token string) error) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		err := authorize(e.Request.Context(), OperatorToken(e))
		switch {
		case errors.Is(err, status.ErrUnauthorized):
			return apis.NewUnauthorizedError("Unauthorized", nil)
		case err != nil:
			slog.Error("authorize()", "error", err)
			return apis.NewApiError(http.StatusServiceUnavailable, "Service temporarily unavailable", nil)
		}
		return e.Next()
	}
}
