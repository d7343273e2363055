package service

import (
	"time"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

// DetectChanges compares a broadcast's last known state against a freshly
// fetched provider record and returns one event per detected delta. Pure
// and deterministic; a single poll can emit several events.
//
// A field that comes back absent or empty emits no event: the provider
// sometimes omits fields transiently and a disappearing title is far more
// likely a partial response than an actual edit, so under-reporting beats
// fabricating history.
func DetectChanges(prev *model.Broadcast, fresh *youtube.BroadcastRecord, at time.Time) []model.ChangeEvent {
	var events []model.ChangeEvent

	emit := func(t model.ChangeType, oldV, newV *string) {
		events = append(events, model.ChangeEvent{
			BroadcastID: prev.ID,
			Type:        t,
			OldValue:    oldV,
			NewValue:    newV,
			DetectedAt:  at,
		})
	}

	if fresh.Title != "" && prev.Title != nil && *prev.Title != fresh.Title {
		emit(model.ChangeTitle, prev.Title, strPtr(fresh.Title))
	}
	if fresh.ThumbnailURL != "" && prev.ThumbnailURL != nil && *prev.ThumbnailURL != fresh.ThumbnailURL {
		emit(model.ChangeThumbnail, prev.ThumbnailURL, strPtr(fresh.ThumbnailURL))
	}
	if fresh.Description != "" && prev.Description != nil && *prev.Description != fresh.Description {
		emit(model.ChangeDescription, prev.Description, strPtr(fresh.Description))
	}

	if prev.IsLive != fresh.IsLive {
		if fresh.IsLive {
			emit(model.ChangeWentLive, strPtr("false"), strPtr("true"))
		} else {
			emit(model.ChangeEnded, strPtr("true"), strPtr("false"))
		}
	}

	return events
}

func strPtr(s string) *string { return &s }
