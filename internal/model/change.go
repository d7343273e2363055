package model

import "time"

// ChangeType enumerates the metadata and status deltas the poller detects
// between two consecutive fetches of a broadcast.
type ChangeType string

const (
	ChangeTitle       ChangeType = "title_changed"
	ChangeThumbnail   ChangeType = "thumbnail_changed"
	ChangeDescription ChangeType = "description_changed"
	ChangeWentLive    ChangeType = "went_live"
	ChangeEnded       ChangeType = "ended"
)

// ValidChangeTypes guards change_type values written to the database.
var ValidChangeTypes = map[ChangeType]bool{
	ChangeTitle:       true,
	ChangeThumbnail:   true,
	ChangeDescription: true,
	ChangeWentLive:    true,
	ChangeEnded:       true,
}

// ChangeEvent is one detected delta, immutable once written. AlertSent is
// flipped later by the alert dispatcher, which is outside this service.
type ChangeEvent struct {
	ID          int64      `json:"id"`
	BroadcastID int64      `json:"broadcastId"`
	Type        ChangeType `json:"type"`
	OldValue    *string    `json:"oldValue"`
	NewValue    *string    `json:"newValue"`
	DetectedAt  time.Time  `json:"detectedAt"`
	AlertSent   bool       `json:"alertSent"`
}

// ChangeWindowResponse is the API response for a changes window read.
type ChangeWindowResponse struct {
	VideoID string        `json:"videoId"`
	Range   string        `json:"range"`
	Count   int           `json:"count"`
	Changes []ChangeEvent `json:"changes"`
}

// PollResult summarizes one poll cycle for the trigger caller.
type PollResult struct {
	Polled          int       `json:"polled"`
	MetricsInserted int       `json:"metricsInserted"`
	ChangesDetected int       `json:"changesDetected"`
	Timestamp       time.Time `json:"timestamp"`

	// ChangesByType feeds the process metrics; not part of the response.
	ChangesByType map[ChangeType]int `json:"-"`
}
