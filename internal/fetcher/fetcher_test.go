package fetcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

// fakeProvider scripts per-batch responses and records every call.
type fakeProvider struct {
	mu      sync.Mutex
	calls   [][]string
	etags   []string
	respond func(call int, ids []string, etag string) (*youtube.BatchResult, error)
}

func (p *fakeProvider) FetchBroadcasts(_ context.Context, ids []string, etag string) (*youtube.BatchResult, error) {
	p.mu.Lock()
	call := len(p.calls)
	p.calls = append(p.calls, ids)
	p.etags = append(p.etags, etag)
	p.mu.Unlock()
	return p.respond(call, ids, etag)
}

func records(ids ...string) []youtube.BroadcastRecord {
	out := make([]youtube.BroadcastRecord, len(ids))
	for i, id := range ids {
		out[i] = youtube.BroadcastRecord{VideoID: id, Title: "t-" + id}
	}
	return out
}

func manyIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%04d", i)
	}
	return ids
}

func newTestFetcher(p Provider, limit int) *Fetcher {
	f := New(p, youtube.NewQuotaTracker(limit), zerolog.Nop())
	f.backoff = time.Millisecond
	return f
}

func TestPartition(t *testing.T) {
	batches := Partition(manyIDs(120), 50)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 20)

	assert.Empty(t, Partition(nil, 50))

	// Input order must not matter for batch membership.
	a := Partition([]string{"c", "a", "b"}, 2)
	b := Partition([]string{"b", "c", "a"}, 2)
	assert.Equal(t, a, b)
}

func TestFetchByIDs_CollectsAllBatches(t *testing.T) {
	p := &fakeProvider{
		respond: func(_ int, ids []string, _ string) (*youtube.BatchResult, error) {
			return &youtube.BatchResult{Records: records(ids...), ETag: "etag-1"}, nil
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), manyIDs(120))

	assert.Len(t, res.Records, 120)
	assert.Zero(t, res.Dropped)
	assert.False(t, res.QuotaExhausted)
	assert.Len(t, p.calls, 3)
}

func TestFetchByIDs_QuotaRefusesBeforeIssuing(t *testing.T) {
	p := &fakeProvider{
		respond: func(_ int, ids []string, _ string) (*youtube.BatchResult, error) {
			return &youtube.BatchResult{Records: records(ids...)}, nil
		},
	}
	quota := youtube.NewQuotaTracker(1)
	quota.MarkExhausted()
	f := New(p, quota, zerolog.Nop())

	res := f.FetchByIDs(context.Background(), manyIDs(60))

	assert.True(t, res.QuotaExhausted)
	assert.Equal(t, 60, res.Dropped)
	assert.Empty(t, p.calls, "exhausted quota must not issue requests")
}

func TestFetchByIDs_QuotaErrorStopsCycle(t *testing.T) {
	p := &fakeProvider{
		respond: func(call int, ids []string, _ string) (*youtube.BatchResult, error) {
			return nil, &youtube.APIError{
				Kind:       youtube.ErrQuotaExceeded,
				StatusCode: 403,
				Reason:     "quotaExceeded",
			}
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), manyIDs(40))

	assert.True(t, res.QuotaExhausted)
	assert.Equal(t, 40, res.Dropped)
	assert.True(t, f.quota.Exhausted(1), "tracker must be pinned after provider quota error")
}

func TestFetchByIDs_RetriesServerErrors(t *testing.T) {
	p := &fakeProvider{
		respond: func(call int, ids []string, _ string) (*youtube.BatchResult, error) {
			if call < 2 {
				return nil, &youtube.APIError{Kind: youtube.ErrServer, StatusCode: 503}
			}
			return &youtube.BatchResult{Records: records(ids...)}, nil
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), []string{"vid1", "vid2"})

	assert.Len(t, res.Records, 2)
	assert.Len(t, p.calls, 3, "two failures then success")
}

func TestFetchByIDs_DropsAfterRetryCeiling(t *testing.T) {
	p := &fakeProvider{
		respond: func(int, []string, string) (*youtube.BatchResult, error) {
			return nil, &youtube.APIError{Kind: youtube.ErrServer, StatusCode: 500}
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), []string{"vid1"})

	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Dropped)
	assert.Len(t, p.calls, 3)
}

func TestFetchByIDs_NotFoundNotRetried(t *testing.T) {
	p := &fakeProvider{
		respond: func(int, []string, string) (*youtube.BatchResult, error) {
			return nil, &youtube.APIError{Kind: youtube.ErrNotFound, StatusCode: 400}
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), []string{"bad1", "bad2"})

	assert.Equal(t, 2, res.Dropped)
	assert.Len(t, p.calls, 1, "permanent errors must not be retried")
}

func TestFetchByIDs_ConditionalFetch(t *testing.T) {
	p := &fakeProvider{
		respond: func(call int, ids []string, etag string) (*youtube.BatchResult, error) {
			if etag == "etag-v1" {
				return &youtube.BatchResult{ETag: etag, NotModified: true}, nil
			}
			return &youtube.BatchResult{Records: records(ids...), ETag: "etag-v1"}, nil
		},
	}
	f := newTestFetcher(p, 10000)
	ids := []string{"vidA", "vidB"}

	first := f.FetchByIDs(context.Background(), ids)
	require.Len(t, first.Records, 2)
	assert.Empty(t, first.NotModified)

	second := f.FetchByIDs(context.Background(), ids)
	assert.Empty(t, second.Records)
	assert.ElementsMatch(t, ids, second.NotModified)

	require.Len(t, p.etags, 2)
	assert.Empty(t, p.etags[0])
	assert.Equal(t, "etag-v1", p.etags[1], "second call must carry the validator token")
}

func TestFetchByIDs_OmittedIdsCountDropped(t *testing.T) {
	p := &fakeProvider{
		respond: func(_ int, ids []string, _ string) (*youtube.BatchResult, error) {
			// Provider silently omits deleted videos from the item list.
			return &youtube.BatchResult{Records: records(ids[0])}, nil
		},
	}
	f := newTestFetcher(p, 10000)

	res := f.FetchByIDs(context.Background(), []string{"alive", "deleted", "gone"})

	assert.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Dropped)
}

func TestFetchByIDs_CancelledContextStartsNoBatches(t *testing.T) {
	p := &fakeProvider{
		respond: func(_ int, ids []string, _ string) (*youtube.BatchResult, error) {
			return &youtube.BatchResult{Records: records(ids...)}, nil
		},
	}
	f := newTestFetcher(p, 10000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.FetchByIDs(ctx, manyIDs(60))

	assert.Empty(t, res.Records)
	assert.Equal(t, 60, res.Dropped)
	assert.Empty(t, p.calls)
}
