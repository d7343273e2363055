package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/bStyler/live-stream-monitor-sub000/internal/middleware"
	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
	"github.com/bStyler/live-stream-monitor-sub000/internal/repository"
	"github.com/bStyler/live-stream-monitor-sub000/internal/service"
)

// ChangeHandler serves the metadata change history endpoint.
type ChangeHandler struct {
	broadcasts *repository.BroadcastRepo
	changes    *repository.ChangeRepo
	cache      *service.CacheService
}

func NewChangeHandler(broadcasts *repository.BroadcastRepo, changes *repository.ChangeRepo, cache *service.CacheService) *ChangeHandler {
	return &ChangeHandler{broadcasts: broadcasts, changes: changes, cache: cache}
}

// Window handles GET /api/broadcasts/:videoId/changes
func (h *ChangeHandler) Window(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	rng, from, errMsg := middleware.ValidateRange(c.Query("range"), time.Now().UTC())
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_RANGE", errMsg)
	}

	if cached, err := h.cache.GetWindow(c.Context(), "changes", videoID, rng); err == nil && cached != nil {
		Metrics.CacheHits.Inc()
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}
	Metrics.CacheMisses.Inc()

	b, err := h.broadcasts.FindByVideoID(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Broadcast not tracked")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch broadcast")
	}

	events, err := h.changes.ListWindow(c.Context(), b.ID, from)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch changes")
	}
	if events == nil {
		events = []model.ChangeEvent{}
	}

	resp := model.ChangeWindowResponse{
		VideoID: videoID,
		Range:   rng,
		Count:   len(events),
		Changes: events,
	}
	if err := h.cache.SetWindow(c.Context(), "changes", videoID, rng, resp); err != nil {
		_ = err
	}
	return c.JSON(resp)
}
