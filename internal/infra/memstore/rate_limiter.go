// File: internal/infra/memstore/rate_limiter.go
package memstore

import (
	"sync"
	"time"
)

// RateLimiter is a per-identifier sliding-window request counter.
// Entries older than the window are pruned lazily on access; rejected
// requests are not recorded.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether the identifier may make a request now and how much
// capacity remains in the trailing window.
func (r *RateLimiter) Allow(identifier string) (bool, int) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.prune(identifier, now)
	if len(kept) >= r.limit {
		return false, 0
	}
	kept = append(kept, now)
	r.requests[identifier] = kept
	return true, r.limit - len(kept)
}

// Remaining returns current capacity without recording a request.
func (r *RateLimiter) Remaining(identifier string) int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.prune(identifier, now)
	r.requests[identifier] = kept
	if rem := r.limit - len(kept); rem > 0 {
		return rem
	}
	return 0
}

// Reset clears the identifier's window (admin/testing override).
func (r *RateLimiter) Reset(identifier string) {
	r.mu.Lock()
	delete(r.requests, identifier)
	r.mu.Unlock()
}

// RetryAfter is the advisory delay returned with a rejection.
func (r *RateLimiter) RetryAfter() time.Duration { return r.window }

// prune drops timestamps older than the window. Caller holds r.mu.
func (r *RateLimiter) prune(identifier string, now time.Time) []time.Time {
	stamps := r.requests[identifier]
	kept := stamps[:0]
	for _, t := range stamps {
		if now.Sub(t) < r.window {
			kept = append(kept, t)
		}
	}
	return kept
}
