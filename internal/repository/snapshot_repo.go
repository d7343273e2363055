package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
)

// SnapshotRepo appends and reads the append-only time-series table. Rows
// are immutable once written; there is no dedup key, so writing a snapshot
// at most once per broadcast per cycle is the poller's job.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Append inserts one snapshot row. Nil counters are stored as NULL, not
// zero: absence means the provider omitted the field, while zero is a
// real observation.
func (r *SnapshotRepo) Append(ctx context.Context, q Querier, broadcastID int64, viewers, likes, views *int64, at time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO broadcast_metrics (broadcast_id, viewers, likes, views, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		broadcastID, viewers, likes, views, at)
	return err
}

// ListWindow returns snapshots for a broadcast recorded at or after from,
// oldest first.
func (r *SnapshotRepo) ListWindow(ctx context.Context, broadcastID int64, from time.Time) ([]model.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, broadcast_id, viewers, likes, views, recorded_at
		FROM broadcast_metrics
		WHERE broadcast_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC`,
		broadcastID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		if err := rows.Scan(&s.ID, &s.BroadcastID, &s.Viewers, &s.Likes, &s.Views, &s.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
