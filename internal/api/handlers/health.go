package handlers

import (
	"context"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/worker"

	"github.com/gofiber/fiber/v2"
)

// HealthChecker verifies backing stores
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStats exposes worker pool metrics
type PoolStats interface {
	GetMetrics() worker.MetricsSnapshot
}

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	GetClientCount() int
}

// HealthHandler reports service health
type HealthHandler struct {
	checker HealthChecker
	pool    PoolStats
	hub     ClientCounter
}

func NewHealthHandler(checker HealthChecker, pool PoolStats, hub ClientCounter) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		pool:    pool,
		hub:     hub,
	}
}

// HealthCheck handles GET /api/v1/health
// @Summary Health check
// @Description Checks the health of the service and its dependencies
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.checker.HealthCheck(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":            "healthy",
		"message":           "All systems operational",
		"worker_pool":       h.pool.GetMetrics(),
		"websocket_clients": h.hub.GetClientCount(),
	})
}
