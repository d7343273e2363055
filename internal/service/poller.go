package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/bStyler/live-stream-monitor-sub000/internal/fetcher"
	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
	"github.com/bStyler/live-stream-monitor-sub000/internal/repository"
	"github.com/bStyler/live-stream-monitor-sub000/internal/youtube"
)

// commitTimeout bounds the write phase for broadcasts whose fetch already
// completed; dispatched work commits even when the trigger is cancelled.
const commitTimeout = 15 * time.Second

// BatchFetcher is the slice of the fetcher the poller drives.
type BatchFetcher interface {
	FetchByIDs(ctx context.Context, videoIDs []string) *fetcher.Result
}

// PollService runs one ingestion cycle per external trigger: select due
// broadcasts, fetch fresh provider state, detect changes, append metric
// snapshots, and update the catalog. Provider-level failures for
// individual broadcasts are absorbed; only infrastructure failures abort
// the cycle.
type PollService struct {
	pool       *pgxpool.Pool
	broadcasts *repository.BroadcastRepo
	snapshots  *repository.SnapshotRepo
	changes    *repository.ChangeRepo
	fetch      BatchFetcher
	logger     zerolog.Logger

	minInterval time.Duration
	cycleBudget time.Duration

	now func() time.Time
}

func NewPollService(
	pool *pgxpool.Pool,
	broadcasts *repository.BroadcastRepo,
	snapshots *repository.SnapshotRepo,
	changes *repository.ChangeRepo,
	fetch BatchFetcher,
	logger zerolog.Logger,
	minInterval, cycleBudget time.Duration,
) *PollService {
	return &PollService{
		pool:        pool,
		broadcasts:  broadcasts,
		snapshots:   snapshots,
		changes:     changes,
		fetch:       fetch,
		logger:      logger.With().Str("component", "poller").Logger(),
		minInterval: minInterval,
		cycleBudget: cycleBudget,
		now:         time.Now,
	}
}

// RunPollCycle executes one cycle capped at maxBroadcasts. The error
// return is reserved for infrastructure failures (storage unreachable);
// per-broadcast provider failures only reduce the reported counts.
func (s *PollService) RunPollCycle(ctx context.Context, maxBroadcasts int) (*model.PollResult, error) {
	start := s.now()
	result := &model.PollResult{
		Timestamp:     start.UTC(),
		ChangesByType: make(map[model.ChangeType]int),
	}

	due, err := s.broadcasts.FindDue(ctx, s.minInterval, maxBroadcasts)
	if err != nil {
		return nil, fmt.Errorf("select due broadcasts: %w", err)
	}
	if len(due) == 0 {
		s.logger.Debug().Msg("no broadcasts due")
		return result, nil
	}

	byID := make(map[string]*model.Broadcast, len(due))
	ids := make([]string, 0, len(due))
	for i := range due {
		byID[due[i].VideoID] = &due[i]
		ids = append(ids, due[i].VideoID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cycleBudget)
	defer cancel()
	fetched := s.fetch.FetchByIDs(fetchCtx, ids)

	// Writes finish even if the trigger's context is gone by now.
	commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer commitCancel()

	for i := range fetched.Records {
		rec := &fetched.Records[i]
		prev, ok := byID[rec.VideoID]
		if !ok {
			// Result id we never asked for; provider quirk, skip.
			continue
		}

		events := DetectChanges(prev, rec, start)
		next := applyFetch(prev, rec, start)

		if err := s.commitBroadcast(commitCtx, next, rec, events, start); err != nil {
			return result, fmt.Errorf("commit broadcast %s: %w", rec.VideoID, err)
		}

		result.Polled++
		result.MetricsInserted++
		result.ChangesDetected += len(events)
		for _, ev := range events {
			result.ChangesByType[ev.Type]++
		}
	}

	if len(fetched.NotModified) > 0 {
		if err := s.broadcasts.TouchFetched(commitCtx, fetched.NotModified, start); err != nil {
			return result, fmt.Errorf("touch unmodified broadcasts: %w", err)
		}
		result.Polled += len(fetched.NotModified)
	}

	evt := s.logger.Info().
		Int("due", len(due)).
		Int("polled", result.Polled).
		Int("metrics", result.MetricsInserted).
		Int("changes", result.ChangesDetected).
		Int("dropped", fetched.Dropped).
		Dur("elapsed", time.Since(start))
	if fetched.QuotaExhausted {
		evt = evt.Bool("quota_exhausted", true)
	}
	evt.Msg("poll cycle complete")

	return result, nil
}

// commitBroadcast stages the snapshot insert, change inserts, and catalog
// update for one broadcast and commits them together, so a crash never
// splits one broadcast's state across tables.
func (s *PollService) commitBroadcast(ctx context.Context, next *model.Broadcast, rec *youtube.BroadcastRecord, events []model.ChangeEvent, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.snapshots.Append(ctx, tx, next.ID, rec.ConcurrentViewers, rec.LikeCount, rec.ViewCount, at); err != nil {
		return err
	}
	for i := range events {
		if err := s.changes.Insert(ctx, tx, &events[i]); err != nil {
			return err
		}
	}
	if err := s.broadcasts.UpdateFromPoll(ctx, tx, next); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// applyFetch recomputes a broadcast's current-state fields from a fresh
// provider record. Absent provider fields retain the previous value; in
// particular an absent viewer count never resets the peak.
func applyFetch(prev *model.Broadcast, rec *youtube.BroadcastRecord, at time.Time) *model.Broadcast {
	next := *prev

	if rec.Title != "" {
		next.Title = strPtr(rec.Title)
	}
	if rec.Description != "" {
		next.Description = strPtr(rec.Description)
	}
	if rec.ThumbnailURL != "" {
		next.ThumbnailURL = strPtr(rec.ThumbnailURL)
	}
	if rec.ChannelID != "" {
		next.ChannelID = strPtr(rec.ChannelID)
	}
	if rec.ChannelTitle != "" {
		next.ChannelTitle = strPtr(rec.ChannelTitle)
	}

	next.IsLive = rec.IsLive

	if rec.ScheduledStartTime != nil {
		next.ScheduledStartTime = rec.ScheduledStartTime
	}
	if rec.ActualStartTime != nil {
		next.ActualStartTime = rec.ActualStartTime
	}
	switch {
	case rec.ActualEndTime != nil:
		next.ActualEndTime = rec.ActualEndTime
	case prev.IsLive && !rec.IsLive && prev.ActualEndTime == nil:
		// The broadcast ended between polls and the provider did not say
		// when; the detection instant is the best available end time.
		endAt := at
		next.ActualEndTime = &endAt
	}

	next.CurrentViewers = rec.ConcurrentViewers
	next.PeakViewers = peakViewers(prev.PeakViewers, rec.ConcurrentViewers)

	if rec.LikeCount != nil {
		next.LikeCount = rec.LikeCount
	}

	fetchedAt := at
	next.LastFetchedAt = &fetchedAt

	return &next
}

// peakViewers returns max(previous peak, current observation), treating
// nil as "no observation" so a missing value never resets the peak.
func peakViewers(prevPeak, current *int64) *int64 {
	if current == nil {
		return prevPeak
	}
	if prevPeak == nil || *current > *prevPeak {
		v := *current
		return &v
	}
	return prevPeak
}
