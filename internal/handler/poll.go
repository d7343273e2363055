package handler

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bStyler/live-stream-monitor-sub000/internal/service"
	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

type PollHandler struct {
	poller        *service.PollService
	quota         *youtube.QuotaTracker
	secret        string
	maxBroadcasts int
}

func NewPollHandler(poller *service.PollService, quota *youtube.QuotaTracker, secret string, maxBroadcasts int) *PollHandler {
	return &PollHandler{
		poller:        poller,
		quota:         quota,
		secret:        secret,
		maxBroadcasts: maxBroadcasts,
	}
}

// Run handles GET /api/poll/run — the external scheduler's trigger. The
// bearer token must match the configured shared secret.
func (h *PollHandler) Run(c fiber.Ctx) error {
	if !h.authorized(c.Get("Authorization")) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or missing trigger secret",
			},
		})
	}

	start := time.Now()
	result, err := h.poller.RunPollCycle(c.Context(), h.maxBroadcasts)

	Metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	Metrics.QuotaUnitsUsed.Set(float64(h.quota.Used()))

	if err != nil {
		Metrics.PollCyclesTotal.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "Poll cycle failed",
			"timestamp": time.Now().UTC(),
		})
	}

	Metrics.PollCyclesTotal.WithLabelValues("ok").Inc()
	Metrics.SnapshotsWritten.Add(float64(result.MetricsInserted))
	for changeType, count := range result.ChangesByType {
		Metrics.ChangesDetected.WithLabelValues(string(changeType)).Add(float64(count))
	}

	return c.JSON(fiber.Map{
		"polled":          result.Polled,
		"metricsInserted": result.MetricsInserted,
		"changesDetected": result.ChangesDetected,
		"timestamp":       result.Timestamp,
	})
}

// authorized compares the Authorization header against the shared secret
// in constant time. An unset secret rejects everything rather than
// leaving the trigger open.
func (h *PollHandler) authorized(header string) bool {
	if h.secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
