package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/bStyler/live-stream-monitor-sub000/internal/middleware"
	"github.com/bStyler/live-stream-monitor-sub000/internal/repository"
)

type BroadcastHandler struct {
	repo *repository.BroadcastRepo
}

func NewBroadcastHandler(repo *repository.BroadcastRepo) *BroadcastHandler {
	return &BroadcastHandler{repo: repo}
}

// Get handles GET /api/broadcasts/:videoId
func (h *BroadcastHandler) Get(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	b, err := h.repo.FindByVideoID(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Broadcast not tracked")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch broadcast")
	}

	return c.JSON(b)
}

// Register handles POST /api/broadcasts
func (h *BroadcastHandler) Register(c fiber.Ctx) error {
	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	b, err := h.repo.Register(c.Context(), videoID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register broadcast")
	}

	return c.Status(fiber.StatusCreated).JSON(b)
}

// Delete handles DELETE /api/broadcasts/:videoId — soft delete only.
func (h *BroadcastHandler) Delete(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.repo.SoftDelete(c.Context(), videoID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Broadcast not tracked")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete broadcast")
	}

	return c.JSON(fiber.Map{"success": true})
}
