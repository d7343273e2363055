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
	"github.com/bStyler/live-stream-monitor-sub000/pkg/downsample"
)

// SnapshotHandler serves the time-series chart endpoint. Responses are
// cached in Redis for a short TTL and downsampled server-side so a month
// of minute-resolution data stays renderable.
type SnapshotHandler struct {
	broadcasts *repository.BroadcastRepo
	snapshots  *repository.SnapshotRepo
	cache      *service.CacheService
}

func NewSnapshotHandler(broadcasts *repository.BroadcastRepo, snapshots *repository.SnapshotRepo, cache *service.CacheService) *SnapshotHandler {
	return &SnapshotHandler{broadcasts: broadcasts, snapshots: snapshots, cache: cache}
}

// Window handles GET /api/broadcasts/:videoId/metrics
func (h *SnapshotHandler) Window(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	rng, from, errMsg := middleware.ValidateRange(c.Query("range"), time.Now().UTC())
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_RANGE", errMsg)
	}

	points, errMsg := middleware.ValidatePoints(c.Query("points"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_POINTS", errMsg)
	}

	// Only the default resolution is cached; custom point counts are rare
	// and cheap enough to recompute.
	cacheable := points == middleware.DefaultPoints
	if cacheable {
		if cached, err := h.cache.GetWindow(c.Context(), "metrics", videoID, rng); err == nil && cached != nil {
			Metrics.CacheHits.Inc()
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}
		Metrics.CacheMisses.Inc()
	}

	b, err := h.broadcasts.FindByVideoID(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Broadcast not tracked")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch broadcast")
	}

	snaps, err := h.snapshots.ListWindow(c.Context(), b.ID, from)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch metrics")
	}

	resp := buildWindowResponse(videoID, rng, snaps, points)
	if cacheable {
		if err := h.cache.SetWindow(c.Context(), "metrics", videoID, rng, resp); err != nil {
			// Cache write failure must not fail the read.
			_ = err
		}
	}
	return c.JSON(resp)
}

// buildWindowResponse downsamples the raw series on the viewer count and
// projects the surviving rows into the chart shape. The response is always
// well-formed, including the empty window.
func buildWindowResponse(videoID, rng string, snaps []model.Snapshot, target int) model.SnapshotWindowResponse {
	pts := make([]downsample.Point, len(snaps))
	for i, s := range snaps {
		pts[i] = downsample.Point{T: s.RecordedAt, V: s.Viewers}
	}
	kept := downsample.Downsample(pts, target)

	// Map the kept timestamps back onto the source rows. Both slices are
	// in ascending order, so a single forward scan suffices.
	out := make([]model.SnapshotPoint, 0, len(kept))
	j := 0
	for _, p := range kept {
		for j < len(snaps) && !snaps[j].RecordedAt.Equal(p.T) {
			j++
		}
		if j >= len(snaps) {
			break
		}
		s := snaps[j]
		out = append(out, model.SnapshotPoint{
			Viewers:    s.Viewers,
			Likes:      s.Likes,
			Views:      s.Views,
			RecordedAt: s.RecordedAt,
		})
		j++
	}

	return model.SnapshotWindowResponse{
		VideoID:     videoID,
		Range:       rng,
		Count:       len(out),
		Downsampled: len(out) < len(snaps),
		Snapshots:   out,
	}
}
