package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PollWorker drives the poll cycle on an internal ticker for deployments
// without an external cron trigger. Overlap with trigger-initiated runs is
// tolerated: all writes are append-only and catalog updates idempotent, so
// a duplicate run costs storage, not correctness.
type PollWorker struct {
	poller        *PollService
	interval      time.Duration
	maxBroadcasts int
	logger        zerolog.Logger
	stopCh        chan struct{}
}

func NewPollWorker(poller *PollService, interval time.Duration, maxBroadcasts int, logger zerolog.Logger) *PollWorker {
	return &PollWorker{
		poller:        poller,
		interval:      interval,
		maxBroadcasts: maxBroadcasts,
		logger:        logger.With().Str("component", "poll-worker").Logger(),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the poll loop. It runs one cycle immediately, then every
// interval, until the context is cancelled or Stop is called.
func (w *PollWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *PollWorker) Stop() {
	close(w.stopCh)
}

func (w *PollWorker) tick(ctx context.Context) {
	start := time.Now()

	result, err := w.poller.RunPollCycle(ctx, w.maxBroadcasts)
	if err != nil {
		w.logger.Error().Err(err).Msg("poll cycle failed")
		return
	}

	w.logger.Info().
		Int("polled", result.Polled).
		Int("metrics", result.MetricsInserted).
		Int("changes", result.ChangesDetected).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("tick complete")
}
