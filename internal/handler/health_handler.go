package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	backend Pinger
	db      Pinger
}

// NewHealthHandler creates a HealthHandler. db is nil when the receipt
// ledger is disabled.
func NewHealthHandler(backend Pinger, db Pinger) *HealthHandler {
	return &HealthHandler{backend: backend, db: db}
}

// Check pings the booking backend and, when configured, the database.
// Returns 200 OK with {"status": "healthy"} when every dependency answers and
// 503 with {"status": "unhealthy", "error": "..."} otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	database := "disabled"
	if h.db != nil {
		if err := h.db.Ping(c.UserContext()); err != nil {
			log.Error().Err(err).Msg("health check failed: database unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
		}
		database = "up"
	}

	if err := h.backend.Ping(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("health check failed: booking backend unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "booking backend unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"backend":  "up",
		"database": database,
	})
}
