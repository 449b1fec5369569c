// Package ratelimit implements the per-agent sliding-window analysis
// quota. This is a local soft guard, independent of any upstream
// provider's own limits.
package ratelimit

import (
	"sync"
	"time"
)

const window = 60 * time.Second

// Window counts events in a rolling 60-second window and rejects new
// ones once the configured limit is reached.
type Window struct {
	mu     sync.Mutex
	limit  int
	stamps []time.Time
	now    func() time.Time
}

// NewWindow creates a limiter allowing limit events per rolling minute.
func NewWindow(limit int) *Window {
	return &Window{
		limit: limit,
		now:   time.Now,
	}
}

// Allow consumes one slot if the window is not exhausted. Once the limit
// is reached, calls are rejected until the oldest timestamp ages out.
func (w *Window) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune()
	if len(w.stamps) >= w.limit {
		return false
	}
	w.stamps = append(w.stamps, w.now())
	return true
}

// Remaining returns how many slots are currently free.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune()
	return w.limit - len(w.stamps)
}

// prune drops timestamps older than the window. Caller holds w.mu.
func (w *Window) prune() {
	cutoff := w.now().Add(-window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}
