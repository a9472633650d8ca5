package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"festival-tickets/models"
	"festival-tickets/utils"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type statsSource interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

type HealthHandler struct {
	redis redis.Cmdable
	store statsSource
}

func NewHealthHandler(redisClient redis.Cmdable, store statsSource) *HealthHandler {
	return &HealthHandler{redis: redisClient, store: store}
}

// Health reports whether Redis is reachable.
func (h *HealthHandler) Health(e *core.RequestEvent) error {
	if err := utils.RedisHealthCheck(e.Request.Context(), h.redis); err != nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports whether the ticket store answers queries.
func (h *HealthHandler) Ready(e *core.RequestEvent) error {
	if _, err := h.store.Stats(e.Request.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		return e.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
