// Package ratelimit spaces out calls to quota-limited providers.
//
// A Limiter is a token bucket with a burst of one: the first call passes
// immediately and each following call waits until the configured interval
// has elapsed since the previous one. Limiters are meant to be shared by
// every caller of the same provider so that concurrent ingestion runs do
// not each enforce the delay independently.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is used when a provider reports a rate limit without a retry hint.
const DefaultBackoff = 60 * time.Second

// Limiter provides rate limiting for provider requests.
// It uses a token bucket algorithm with optional backoff for 429 responses.
type Limiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	interval time.Duration
}

// New creates a limiter that allows one call per interval.
// A non-positive interval disables limiting.
func New(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Interval returns the configured spacing between calls.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// RecordRateLimitError pauses every caller of the limiter until retryAfter
// has passed, or DefaultBackoff when the provider gave no hint. It returns
// the time calls resume. Call this when a provider answers with HTTP 429.
func (l *Limiter) RecordRateLimitError(retryAfter time.Duration) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}

	l.retryAt = time.Now().Add(retryAfter)
	return l.retryAt
}

// Registry hands out one shared Limiter per provider key.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// For returns the limiter for key, creating it with interval on first use.
// Later calls with a different interval receive the existing limiter.
func (r *Registry) For(key string, interval time.Duration) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	l := New(interval)
	r.limiters[key] = l
	return l
}
