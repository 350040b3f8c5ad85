package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Gate combines the two politeness controls applied to outbound requests:
//
//   - a counting gate bounding the number of simultaneous in-flight requests;
//     callers beyond the capacity block in Acquire until a slot frees.
//   - a pacing rule enforcing a minimum interval between consecutive
//     requests, global to the gate instance.
//
// The two are independent: pacing throttles rate, the gate bounds
// parallelism. Pacing decisions are serialized in the order callers reach
// Pace, which is lock-acquisition order, not a strict FIFO queue.
type Gate struct {
	sem *semaphore.Weighted

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewGate creates a gate with the given capacity and minimum inter-request
// interval. A capacity below 1 is raised to 1; a negative interval is
// treated as zero (no pacing).
func NewGate(capacity int64, minInterval time.Duration) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	if minInterval < 0 {
		minInterval = 0
	}
	return &Gate{
		sem:         semaphore.NewWeighted(capacity),
		minInterval: minInterval,
	}
}

// Pace blocks until at least the configured interval has passed since the
// previous paced request, then claims the current slot in the schedule.
// Each caller is assigned a distinct departure time under the lock, so
// concurrent callers are spaced out rather than released together.
func (g *Gate) Pace(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if !g.lastRequest.IsZero() {
		elapsed := now.Sub(g.lastRequest)
		if elapsed < g.minInterval {
			wait = g.minInterval - elapsed
		}
	}
	g.lastRequest = now.Add(wait)
	g.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire claims one in-flight slot, blocking until a slot frees or the
// context is cancelled. Every successful Acquire must be paired with a
// Release.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire claims a slot without blocking.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release frees a previously acquired slot.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// MinInterval returns the configured pacing interval.
func (g *Gate) MinInterval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.minInterval
}

// LastRequestAt returns the timestamp assigned to the most recently paced
// request.
func (g *Gate) LastRequestAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRequest
}
