package handler

import (
	"testing"
	"time"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

func makeSnapshots(n int, start time.Time) []model.Snapshot {
	out := make([]model.Snapshot, n)
	for i := range out {
		out[i] = model.Snapshot{
			ID:         int64(i + 1),
			Viewers:    int64Ptr(int64(1000 + i)),
			Likes:      int64Ptr(int64(50 + i)),
			RecordedAt: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestBuildWindowResponse_SmallWindowPassesThrough(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	snaps := makeSnapshots(10, start)

	resp := buildWindowResponse("vid123", "today", snaps, 2000)

	if resp.Count != 10 || resp.Downsampled {
		t.Fatalf("got count=%d downsampled=%v, want 10 points untouched", resp.Count, resp.Downsampled)
	}
	if resp.VideoID != "vid123" || resp.Range != "today" {
		t.Errorf("response identity fields wrong: %+v", resp)
	}
	for i, p := range resp.Snapshots {
		if !p.RecordedAt.Equal(snaps[i].RecordedAt) {
			t.Errorf("point %d: timestamps reordered", i)
		}
		if p.Likes == nil || *p.Likes != int64(50+i) {
			t.Errorf("point %d: secondary metric not carried through", i)
		}
	}
}

func TestBuildWindowResponse_LargeWindowIsDownsampled(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	snaps := makeSnapshots(43200, start)

	resp := buildWindowResponse("vid123", "30d", snaps, 2000)

	if resp.Count != 2000 || !resp.Downsampled {
		t.Fatalf("got count=%d downsampled=%v, want 2000 downsampled", resp.Count, resp.Downsampled)
	}
	first := resp.Snapshots[0]
	last := resp.Snapshots[len(resp.Snapshots)-1]
	if !first.RecordedAt.Equal(snaps[0].RecordedAt) {
		t.Errorf("first point dropped")
	}
	if !last.RecordedAt.Equal(snaps[len(snaps)-1].RecordedAt) {
		t.Errorf("last point dropped")
	}
	prev := first.RecordedAt
	for _, p := range resp.Snapshots[1:] {
		if !p.RecordedAt.After(prev) {
			t.Fatalf("output not in ascending time order around %v", p.RecordedAt)
		}
		prev = p.RecordedAt
	}
}

func TestBuildWindowResponse_EmptyWindow(t *testing.T) {
	resp := buildWindowResponse("vid123", "7d", nil, 2000)

	if resp.Count != 0 || resp.Downsampled {
		t.Fatalf("got count=%d downsampled=%v, want empty undownsampled", resp.Count, resp.Downsampled)
	}
	if resp.Snapshots == nil {
		t.Error("snapshots should encode as [] not null")
	}
}

func TestBuildWindowResponse_NilViewersRowsSurvive(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	snaps := makeSnapshots(5, start)
	snaps[2].Viewers = nil

	resp := buildWindowResponse("vid123", "today", snaps, 2000)

	if resp.Count != 5 {
		t.Fatalf("got %d points, want all 5", resp.Count)
	}
	if resp.Snapshots[2].Viewers != nil {
		t.Error("absent viewer count should stay absent, not become zero")
	}
}

func TestPollHandler_Authorized(t *testing.T) {
	h := &PollHandler{secret: "s3cret"}

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid bearer", "Bearer s3cret", true},
		{"wrong token", "Bearer nope", false},
		{"missing prefix", "s3cret", false},
		{"lowercase scheme", "bearer s3cret", false},
		{"empty header", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.authorized(tc.header); got != tc.want {
				t.Errorf("authorized(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}

func TestPollHandler_EmptySecretRejectsAll(t *testing.T) {
	h := &PollHandler{secret: ""}
	if h.authorized("Bearer ") || h.authorized("") {
		t.Error("unset secret must reject every request")
	}
}
