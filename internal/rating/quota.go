// internal/rating/quota.go
package rating

import (
	"sync"
	"time"
)

// Quota tracks rating API requests against a daily ceiling. The counter
// is keyed by the local calendar date and implicitly resets when the date
// changes. It lives only in process memory: a restart resets the count,
// which is an accepted limitation of the free-tier budget model, not
// something the tracker tries to hide.
type Quota struct {
	mu       sync.Mutex
	limit    int
	requests int
	day      string
	now      func() time.Time
}

// Usage is a point-in-time snapshot of quota consumption.
type Usage struct {
	Requests  int `json:"requests_used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// NewQuota creates a tracker with the given daily request ceiling.
func NewQuota(limit int) *Quota {
	return &Quota{
		limit: limit,
		now:   time.Now,
	}
}

// CanRate reports whether another request fits in today's budget.
func (q *Quota) CanRate() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return q.requests < q.limit
}

// Remaining returns the number of requests left today.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return q.limit - q.requests
}

// Reserve atomically claims one request from today's budget, reporting
// false without incrementing when the budget is exhausted. Claiming
// before the call closes the window where two concurrent sweeps could
// both pass a CanRate check for the same final slot.
func (q *Quota) Reserve() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	if q.requests >= q.limit {
		return false
	}
	q.requests++
	return true
}

// Release returns a reserved request to the budget, used when the call
// it was claimed for failed. A release after the date rolled over is
// dropped rather than going negative against the fresh counter.
func (q *Quota) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	if q.requests > 0 {
		q.requests--
	}
}

// Snapshot returns current usage for observability endpoints.
func (q *Quota) Snapshot() Usage {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return Usage{
		Requests:  q.requests,
		Limit:     q.limit,
		Remaining: q.limit - q.requests,
	}
}

// rollover resets the counter when the local date has changed.
// Callers must hold q.mu.
func (q *Quota) rollover() {
	today := q.now().Format("2006-01-02")
	if q.day != today {
		q.day = today
		q.requests = 0
	}
}
