package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bStyler/live-stream-monitor-sub000/internal/middleware"
	"github.com/bStyler/live-stream-monitor-sub000/internal/repository"
)

type StatsHandler struct {
	repo *repository.BroadcastRepo
}

func NewStatsHandler(repo *repository.BroadcastRepo) *StatsHandler {
	return &StatsHandler{repo: repo}
}

// Get handles GET /api/stats
func (h *StatsHandler) Get(c fiber.Ctx) error {
	stats, err := h.repo.Stats(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
	}
	return c.JSON(stats)
}
