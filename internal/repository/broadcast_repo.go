package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so write methods
// can participate in the poller's per-broadcast transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const broadcastColumns = `
	id, video_id, title, description, thumbnail_url, channel_id, channel_title,
	is_live, scheduled_start_time, actual_start_time, actual_end_time,
	current_viewers, peak_viewers, like_count, last_fetched_at, deleted_at,
	created_at, updated_at`

type BroadcastRepo struct {
	pool *pgxpool.Pool
}

func NewBroadcastRepo(pool *pgxpool.Pool) *BroadcastRepo {
	return &BroadcastRepo{pool: pool}
}

func scanBroadcast(row pgx.Row) (*model.Broadcast, error) {
	var b model.Broadcast
	err := row.Scan(
		&b.ID, &b.VideoID, &b.Title, &b.Description, &b.ThumbnailURL,
		&b.ChannelID, &b.ChannelTitle, &b.IsLive,
		&b.ScheduledStartTime, &b.ActualStartTime, &b.ActualEndTime,
		&b.CurrentViewers, &b.PeakViewers, &b.LikeCount,
		&b.LastFetchedAt, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindDue returns broadcasts needing a poll: currently live, never
// fetched, or last fetched longer than minInterval ago. Soft-deleted rows
// are excluded. Live broadcasts come first under the cap, then the
// longest-unfetched.
func (r *BroadcastRepo) FindDue(ctx context.Context, minInterval time.Duration, limit int) ([]model.Broadcast, error) {
	query := `
		SELECT` + broadcastColumns + `
		FROM broadcasts
		WHERE deleted_at IS NULL
		  AND (is_live = TRUE
		       OR last_fetched_at IS NULL
		       OR last_fetched_at < NOW() - $1::interval)
		ORDER BY is_live DESC, last_fetched_at ASC NULLS FIRST
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, minInterval, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// FindByVideoID returns a tracked broadcast by its external id, excluding
// soft-deleted rows.
func (r *BroadcastRepo) FindByVideoID(ctx context.Context, videoID string) (*model.Broadcast, error) {
	query := `
		SELECT` + broadcastColumns + `
		FROM broadcasts
		WHERE video_id = $1 AND deleted_at IS NULL`
	return scanBroadcast(r.pool.QueryRow(ctx, query, videoID))
}

// Register adds a broadcast to the catalog with no fetch history, so the
// next poll cycle picks it up. Re-registering an existing or soft-deleted
// id revives it in place.
func (r *BroadcastRepo) Register(ctx context.Context, videoID string) (*model.Broadcast, error) {
	query := `
		INSERT INTO broadcasts (video_id)
		VALUES ($1)
		ON CONFLICT (video_id) DO UPDATE
			SET deleted_at = NULL, updated_at = NOW()
		RETURNING` + broadcastColumns
	return scanBroadcast(r.pool.QueryRow(ctx, query, videoID))
}

// SoftDelete marks a broadcast deleted; rows are never physically removed.
func (r *BroadcastRepo) SoftDelete(ctx context.Context, videoID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE broadcasts
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE video_id = $1 AND deleted_at IS NULL`, videoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateFromPoll writes the recomputed current-state fields after a
// successful fetch. Runs inside the poller's per-broadcast transaction.
func (r *BroadcastRepo) UpdateFromPoll(ctx context.Context, q Querier, b *model.Broadcast) error {
	_, err := q.Exec(ctx, `
		UPDATE broadcasts
		SET title = $1, description = $2, thumbnail_url = $3,
		    channel_id = $4, channel_title = $5, is_live = $6,
		    scheduled_start_time = $7, actual_start_time = $8, actual_end_time = $9,
		    current_viewers = $10, peak_viewers = $11, like_count = $12,
		    last_fetched_at = $13, updated_at = NOW()
		WHERE id = $14`,
		b.Title, b.Description, b.ThumbnailURL,
		b.ChannelID, b.ChannelTitle, b.IsLive,
		b.ScheduledStartTime, b.ActualStartTime, b.ActualEndTime,
		b.CurrentViewers, b.PeakViewers, b.LikeCount,
		b.LastFetchedAt, b.ID)
	return err
}

// TouchFetched bumps last_fetched_at for broadcasts whose conditional
// fetch answered "not modified": the poll attempt counts even though
// nothing changed.
func (r *BroadcastRepo) TouchFetched(ctx context.Context, videoIDs []string, at time.Time) error {
	if len(videoIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE broadcasts
		SET last_fetched_at = $1, updated_at = NOW()
		WHERE video_id = ANY($2)`, at, videoIDs)
	return err
}

// Stats returns the catalog overview counts.
func (r *BroadcastRepo) Stats(ctx context.Context) (*model.CatalogStats, error) {
	var s model.CatalogStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM broadcasts WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM broadcasts WHERE deleted_at IS NULL AND is_live = TRUE),
			(SELECT COUNT(*) FROM broadcast_metrics WHERE recorded_at > NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM broadcast_changes WHERE detected_at > NOW() - INTERVAL '24 hours')`,
	).Scan(&s.TrackedBroadcasts, &s.LiveNow, &s.Snapshots24h, &s.Changes24h)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
