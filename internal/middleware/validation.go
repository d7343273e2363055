package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Field limits matching the provider's identifier formats.
const (
	MaxVideoIDLen = 16 // YouTube video ids are 11 chars; leave headroom
	MaxPoints     = 5000
	DefaultPoints = 2000
)

// videoIDRe matches YouTube video IDs: alphanumeric, dash, underscore.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// windowRanges maps the supported time-range keywords to their lookback.
// "today" is handled separately (start of the current UTC day).
var windowRanges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"14d": 14 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateRange resolves a time-range keyword to the window start. The
// empty keyword defaults to "today".
func ValidateRange(keyword string, now time.Time) (string, time.Time, string) {
	keyword = strings.TrimSpace(strings.ToLower(keyword))
	if keyword == "" || keyword == "today" {
		y, m, d := now.UTC().Date()
		return "today", time.Date(y, m, d, 0, 0, 0, 0, time.UTC), ""
	}
	if lookback, ok := windowRanges[keyword]; ok {
		return keyword, now.UTC().Add(-lookback), ""
	}
	return "", time.Time{}, "range must be one of: today, 7d, 14d, 30d"
}

// ValidatePoints parses the requested chart point budget, clamping to
// sane bounds. Empty input yields the default.
func ValidatePoints(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPoints, ""
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, "points must be a positive integer"
		}
		n = n*10 + int(r-'0')
		if n > MaxPoints {
			return MaxPoints, ""
		}
	}
	if n < 2 {
		return 0, "points must be at least 2"
	}
	return n, ""
}
