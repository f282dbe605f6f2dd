package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelayLimiter spaces consecutive requests by at least a fixed delay.
// Used for sources that document a crawl delay rather than a request rate.
type FixedDelayLimiter struct {
	delay time.Duration
	next  time.Time
	mu    sync.Mutex
	cfg   Config
}

// NewFixedDelayLimiter creates a new fixed delay limiter.
func NewFixedDelayLimiter(cfg Config) *FixedDelayLimiter {
	cfg = applyDefaults(cfg)
	return &FixedDelayLimiter{delay: cfg.FixedDelay, cfg: cfg}
}

// Wait blocks until the delay since the previous request has elapsed.
func (l *FixedDelayLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	start := now
	if l.next.After(now) {
		start = l.next
	}
	l.next = start.Add(l.delay)
	l.mu.Unlock()

	wait := start.Sub(now)
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

// Allow claims the next slot if no wait is needed.
func (l *FixedDelayLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.next.After(now) {
		return false
	}
	l.next = now.Add(l.delay)
	return true
}

// Reserve returns the time to wait before the next slot.
func (l *FixedDelayLimiter) Reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if wait := time.Until(l.next); wait > 0 {
		return wait
	}
	return 0
}

// RetryAfter returns exponential backoff duration.
func (l *FixedDelayLimiter) RetryAfter(attempt int) time.Duration {
	return CalculateBackoff(attempt, l.cfg)
}

// Reset forgets the previous request.
func (l *FixedDelayLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = time.Time{}
}
