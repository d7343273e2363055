// Package fetcher retrieves broadcast records from the provider in
// batches, absorbing ordinary provider-side failures so a bad batch never
// takes down a poll cycle.
package fetcher

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

const (
	maxAttempts          = 3
	baseBackoff          = 500 * time.Millisecond
	maxConcurrentBatches = 4
)

// Provider is the slice of the YouTube client the fetcher needs.
type Provider interface {
	FetchBroadcasts(ctx context.Context, videoIDs []string, etag string) (*youtube.BatchResult, error)
}

// Result is what one FetchByIDs call produced. Records are the subset
// successfully retrieved; callers must match them back by VideoID, not by
// input position. NotModified lists ids whose batch answered 304: nothing
// changed, but the poll attempt still counts.
type Result struct {
	Records        []youtube.BroadcastRecord
	NotModified    []string
	Dropped        int
	QuotaExhausted bool
}

// Fetcher partitions id lists into provider-sized batches and issues them
// with bounded concurrency. It keeps a per-batch validator token cache for
// conditional fetches; the cache is process-local and lost on restart.
type Fetcher struct {
	provider Provider
	quota    *youtube.QuotaTracker
	logger   zerolog.Logger

	backoff time.Duration

	mu    sync.Mutex
	etags map[string]string
}

func New(provider Provider, quota *youtube.QuotaTracker, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		provider: provider,
		quota:    quota,
		logger:   logger.With().Str("component", "fetcher").Logger(),
		backoff:  baseBackoff,
		etags:    make(map[string]string),
	}
}

// FetchByIDs retrieves provider records for the given video ids. It never
// fails: provider errors are classified, retried where transient, and the
// affected ids dropped for the cycle otherwise. Once cancellation is
// observed no new batch starts, but dispatched batches run to completion.
func (f *Fetcher) FetchByIDs(ctx context.Context, videoIDs []string) *Result {
	res := &Result{}
	if len(videoIDs) == 0 {
		return res
	}

	batches := Partition(videoIDs, youtube.MaxBatchSize)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxConcurrentBatches)

	for _, batch := range batches {
		if ctx.Err() != nil {
			mu.Lock()
			res.Dropped += len(batch)
			mu.Unlock()
			continue
		}
		if f.quota.Exhausted(youtube.VideosListCost) {
			mu.Lock()
			res.QuotaExhausted = true
			res.Dropped += len(batch)
			mu.Unlock()
			continue
		}

		batch := batch
		g.Go(func() error {
			br, err := f.fetchBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if apiErr, ok := youtube.ClassifyError(err); ok && apiErr.Kind == youtube.ErrQuotaExceeded {
					res.QuotaExhausted = true
				}
				res.Dropped += len(batch)
			case br.NotModified:
				res.NotModified = append(res.NotModified, batch...)
			default:
				res.Records = append(res.Records, br.Records...)
				// Ids the provider silently omitted (deleted/private videos).
				res.Dropped += len(batch) - len(br.Records)
			}
			return nil
		})
	}

	g.Wait()
	return res
}

// fetchBatch issues one batch with an iterative bounded retry loop;
// transient failures back off exponentially, everything else gives up
// immediately. The request itself runs detached from the cycle's
// cancellation so an in-flight batch can finish and commit.
func (f *Fetcher) fetchBatch(ctx context.Context, batch []string) (*youtube.BatchResult, error) {
	key := batchKey(batch)
	etag := f.cachedETag(key)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reqCtx := context.WithoutCancel(ctx)
		br, err := f.provider.FetchBroadcasts(reqCtx, batch, etag)

		if err == nil {
			f.quota.Spend(youtube.VideosListCost)
			if !br.NotModified && br.ETag != "" {
				f.storeETag(key, br.ETag)
			}
			return br, nil
		}
		lastErr = err

		apiErr, ok := youtube.ClassifyError(err)
		switch {
		case ok && apiErr.Kind == youtube.ErrQuotaExceeded:
			f.quota.MarkExhausted()
			f.logger.Warn().Int("batch_size", len(batch)).Msg("provider quota exhausted")
			return nil, err
		case ok && apiErr.Kind == youtube.ErrNotFound:
			f.logger.Warn().Int("batch_size", len(batch)).Str("reason", apiErr.Reason).
				Msg("dropping invalid identifiers")
			return nil, err
		case ok && apiErr.Retryable():
			// fall through to backoff
		case ok:
			f.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("dropping batch")
			return nil, err
		default:
			// Network-level failure; treat as transient.
		}

		if attempt == maxAttempts {
			break
		}
		delay := f.backoff << (attempt - 1)
		f.logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).
			Msg("transient provider error, retrying batch")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.logger.Error().Err(lastErr).Int("batch_size", len(batch)).
		Msg("batch dropped after retries")
	return nil, lastErr
}

func (f *Fetcher) cachedETag(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etags[key]
}

func (f *Fetcher) storeETag(key, etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.etags[key] = etag
}

// Partition splits ids into groups of at most size, sorting first so batch
// membership is stable across cycles and the validator-token cache stays
// effective.
func Partition(ids []string, size int) [][]string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var out [][]string
	for len(sorted) > 0 {
		n := size
		if len(sorted) < n {
			n = len(sorted)
		}
		out = append(out, sorted[:n])
		sorted = sorted[n:]
	}
	return out
}

func batchKey(batch []string) string {
	return strings.Join(batch, ",")
}
