package model

import "time"

// Broadcast is a tracked live broadcast in the catalog. The external video
// ID is unique and immutable once created; rows are soft-deleted only.
type Broadcast struct {
	ID                 int64      `json:"id"`
	VideoID            string     `json:"videoId"`
	Title              *string    `json:"title,omitempty"`
	Description        *string    `json:"description,omitempty"`
	ThumbnailURL       *string    `json:"thumbnailUrl,omitempty"`
	ChannelID          *string    `json:"channelId,omitempty"`
	ChannelTitle       *string    `json:"channelTitle,omitempty"`
	IsLive             bool       `json:"isLive"`
	ScheduledStartTime *time.Time `json:"scheduledStartTime,omitempty"`
	ActualStartTime    *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime      *time.Time `json:"actualEndTime,omitempty"`
	CurrentViewers     *int64     `json:"currentViewers,omitempty"`
	PeakViewers        *int64     `json:"peakViewers,omitempty"`
	LikeCount          *int64     `json:"likeCount,omitempty"`
	LastFetchedAt      *time.Time `json:"lastFetchedAt,omitempty"`
	DeletedAt          *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// CatalogStats is the API response for the catalog overview.
type CatalogStats struct {
	TrackedBroadcasts int64 `json:"trackedBroadcasts"`
	LiveNow           int64 `json:"liveNow"`
	Snapshots24h      int64 `json:"snapshots24h"`
	Changes24h        int64 `json:"changes24h"`
}
