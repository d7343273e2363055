package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bStyler/live-stream-monitor-sub000/internal/model"
)

// ChangeRepo writes and reads the append-only change-event table. Events
// are immutable here; only the external alert dispatcher flips alert_sent.
type ChangeRepo struct {
	pool *pgxpool.Pool
}

func NewChangeRepo(pool *pgxpool.Pool) *ChangeRepo {
	return &ChangeRepo{pool: pool}
}

// Insert writes one change event inside the poller's per-broadcast
// transaction.
func (r *ChangeRepo) Insert(ctx context.Context, q Querier, ev *model.ChangeEvent) error {
	if !model.ValidChangeTypes[ev.Type] {
		return fmt.Errorf("invalid change type %q", ev.Type)
	}
	_, err := q.Exec(ctx, `
		INSERT INTO broadcast_changes (broadcast_id, change_type, old_value, new_value, detected_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.BroadcastID, ev.Type, ev.OldValue, ev.NewValue, ev.DetectedAt)
	return err
}

// ListWindow returns change events for a broadcast detected at or after
// from, oldest first.
func (r *ChangeRepo) ListWindow(ctx context.Context, broadcastID int64, from time.Time) ([]model.ChangeEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, broadcast_id, change_type, old_value, new_value, detected_at, alert_sent
		FROM broadcast_changes
		WHERE broadcast_id = $1 AND detected_at >= $2
		ORDER BY detected_at ASC`,
		broadcastID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChangeEvent
	for rows.Next() {
		var ev model.ChangeEvent
		if err := rows.Scan(&ev.ID, &ev.BroadcastID, &ev.Type, &ev.OldValue, &ev.NewValue, &ev.DetectedAt, &ev.AlertSent); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
