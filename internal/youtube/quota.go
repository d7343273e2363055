package youtube

import (
	"sync"
	"time"
)

// quotaLocation is the provider's billing timezone; the daily budget
// resets at midnight US Pacific. Falls back to UTC when tzdata is absent,
// which only shifts the reset boundary, never correctness.
var quotaLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// QuotaTracker counts consumed provider quota units against a daily
// ceiling. One tracker is constructed per process and shared by reference;
// counts reset lazily when the provider billing day rolls over. Losing the
// count on restart is acceptable: it affects efficiency, not correctness.
type QuotaTracker struct {
	mu    sync.Mutex
	used  int
	limit int
	day   string

	now func() time.Time // injectable for tests
}

// NewQuotaTracker creates a tracker with the given daily unit ceiling.
// limit <= 0 disables enforcement (Exhausted always reports false).
func NewQuotaTracker(limit int) *QuotaTracker {
	return &QuotaTracker{limit: limit, now: time.Now}
}

func (q *QuotaTracker) rollover() {
	day := q.now().In(quotaLocation).Format("2006-01-02")
	if day != q.day {
		q.day = day
		q.used = 0
	}
}

// Spend records cost units of consumed quota.
func (q *QuotaTracker) Spend(cost int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	q.used += cost
}

// MarkExhausted pins the counter at the ceiling after the provider
// reported quotaExceeded, so callers stop issuing requests even if the
// local count ran behind the provider's.
func (q *QuotaTracker) MarkExhausted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	if q.limit > 0 && q.used < q.limit {
		q.used = q.limit
	}
}

// Exhausted reports whether spending cost more units would cross the
// daily ceiling.
func (q *QuotaTracker) Exhausted(cost int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	if q.limit <= 0 {
		return false
	}
	return q.used+cost > q.limit
}

// Used returns the units consumed so far today.
func (q *QuotaTracker) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return q.used
}

// Limit returns the configured daily ceiling.
func (q *QuotaTracker) Limit() int {
	return q.limit
}
