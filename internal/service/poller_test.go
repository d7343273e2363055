package service

import (
	"testing"
	"time"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

func iptr(v int64) *int64 { return &v }

func TestPeakViewers(t *testing.T) {
	tests := []struct {
		name     string
		prevPeak *int64
		current  *int64
		want     *int64
	}{
		{"lower observation keeps peak", iptr(500), iptr(300), iptr(500)},
		{"higher observation raises peak", iptr(500), iptr(800), iptr(800)},
		{"absent observation keeps peak", iptr(500), nil, iptr(500)},
		{"first observation sets peak", nil, iptr(42), iptr(42)},
		{"nothing observed yet", nil, nil, nil},
		{"zero is a real observation", nil, iptr(0), iptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := peakViewers(tt.prevPeak, tt.current)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("peak = %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("peak = nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("peak = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestApplyFetch_EndTimeSetOnLiveToNotLive(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prev := &model.Broadcast{ID: 1, VideoID: "vid1", IsLive: true}
	rec := &youtube.BroadcastRecord{VideoID: "vid1", IsLive: false}

	next := applyFetch(prev, rec, at)

	if next.IsLive {
		t.Error("is_live not recomputed")
	}
	if next.ActualEndTime == nil || !next.ActualEndTime.Equal(at) {
		t.Errorf("actual end time = %v, want detection instant %v", next.ActualEndTime, at)
	}
}

func TestApplyFetch_EndTimeNotOverwritten(t *testing.T) {
	ended := time.Date(2025, 5, 30, 20, 0, 0, 0, time.UTC)
	prev := &model.Broadcast{ID: 1, VideoID: "vid1", IsLive: false, ActualEndTime: &ended}
	rec := &youtube.BroadcastRecord{VideoID: "vid1", IsLive: false}

	next := applyFetch(prev, rec, time.Now())

	if next.ActualEndTime == nil || !next.ActualEndTime.Equal(ended) {
		t.Errorf("actual end time = %v, want retained %v", next.ActualEndTime, ended)
	}
}

func TestApplyFetch_ProviderEndTimeWins(t *testing.T) {
	providerEnd := time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC)
	prev := &model.Broadcast{ID: 1, VideoID: "vid1", IsLive: true}
	rec := &youtube.BroadcastRecord{VideoID: "vid1", IsLive: false, ActualEndTime: &providerEnd}

	next := applyFetch(prev, rec, time.Now())

	if next.ActualEndTime == nil || !next.ActualEndTime.Equal(providerEnd) {
		t.Errorf("actual end time = %v, want provider value %v", next.ActualEndTime, providerEnd)
	}
}

func TestApplyFetch_AbsentFieldsRetainPrevious(t *testing.T) {
	sched := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	prev := &model.Broadcast{
		ID:                 1,
		VideoID:            "vid1",
		Title:              sptr("Kept title"),
		Description:        sptr("Kept description"),
		ScheduledStartTime: &sched,
		LikeCount:          iptr(900),
	}
	rec := &youtube.BroadcastRecord{VideoID: "vid1"}

	next := applyFetch(prev, rec, time.Now())

	if next.Title == nil || *next.Title != "Kept title" {
		t.Error("absent title wiped previous value")
	}
	if next.Description == nil || *next.Description != "Kept description" {
		t.Error("absent description wiped previous value")
	}
	if next.ScheduledStartTime == nil || !next.ScheduledStartTime.Equal(sched) {
		t.Error("absent scheduled start wiped previous value")
	}
	if next.LikeCount == nil || *next.LikeCount != 900 {
		t.Error("absent like count wiped previous value")
	}
}

func TestApplyFetch_CurrentViewersAbsentIsAbsent(t *testing.T) {
	// Current viewers reflect this observation only; an ended stream has
	// none, while the peak is preserved separately.
	prev := &model.Broadcast{ID: 1, VideoID: "vid1", CurrentViewers: iptr(350), PeakViewers: iptr(500)}
	rec := &youtube.BroadcastRecord{VideoID: "vid1"}

	next := applyFetch(prev, rec, time.Now())

	if next.CurrentViewers != nil {
		t.Errorf("current viewers = %d, want nil for absent observation", *next.CurrentViewers)
	}
	if next.PeakViewers == nil || *next.PeakViewers != 500 {
		t.Error("peak must survive an absent observation")
	}
}

func TestApplyFetch_SetsLastFetchedAt(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prev := &model.Broadcast{ID: 1, VideoID: "vid1"}

	next := applyFetch(prev, &youtube.BroadcastRecord{VideoID: "vid1"}, at)

	if next.LastFetchedAt == nil || !next.LastFetchedAt.Equal(at) {
		t.Errorf("last fetched at = %v, want %v", next.LastFetchedAt, at)
	}
	if prev.LastFetchedAt != nil {
		t.Error("applyFetch mutated its input")
	}
}

// isDueMirror mirrors the SQL due-selection predicate in FindDue for unit
// testing without a database.
func isDueMirror(b *model.Broadcast, now time.Time, minInterval time.Duration) bool {
	if b.DeletedAt != nil {
		return false
	}
	if b.IsLive || b.LastFetchedAt == nil {
		return true
	}
	return b.LastFetchedAt.Before(now.Add(-minInterval))
}

func TestDueSelection(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	minInterval := 55 * time.Second
	recent := now.Add(-30 * time.Second)
	stale := now.Add(-5 * time.Minute)

	tests := []struct {
		name string
		b    model.Broadcast
		want bool
	}{
		{"recently polled and offline", model.Broadcast{LastFetchedAt: &recent}, false},
		{"live regardless of recency", model.Broadcast{IsLive: true, LastFetchedAt: &recent}, true},
		{"never polled", model.Broadcast{}, true},
		{"stale", model.Broadcast{LastFetchedAt: &stale}, true},
		{"soft-deleted live", model.Broadcast{IsLive: true, DeletedAt: &now}, false},
		{"exactly at the boundary", model.Broadcast{LastFetchedAt: timePtr(now.Add(-minInterval))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDueMirror(&tt.b, now, minInterval); got != tt.want {
				t.Errorf("due = %v, want %v", got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
