package model

import "time"

// Snapshot is one immutable point-in-time measurement of a broadcast's
// live metrics. Nil counters mean the provider omitted the field; a zero
// is a real observation and is stored as zero.
type Snapshot struct {
	ID          int64     `json:"id"`
	BroadcastID int64     `json:"broadcastId"`
	Viewers     *int64    `json:"viewers"`
	Likes       *int64    `json:"likes"`
	Views       *int64    `json:"views"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// SnapshotWindowResponse is the API response for a metrics window read.
type SnapshotWindowResponse struct {
	VideoID     string          `json:"videoId"`
	Range       string          `json:"range"`
	Count       int             `json:"count"`
	Downsampled bool            `json:"downsampled"`
	Snapshots   []SnapshotPoint `json:"snapshots"`
}

// SnapshotPoint is the chart-facing shape of one snapshot.
type SnapshotPoint struct {
	Viewers    *int64    `json:"viewers"`
	Likes      *int64    `json:"likes"`
	Views      *int64    `json:"views"`
	RecordedAt time.Time `json:"recordedAt"`
}
