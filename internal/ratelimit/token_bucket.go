package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket implements token bucket rate limiting on top of x/time/rate.
type TokenBucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	config  Config
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

// NewTokenBucket creates a new token bucket limiter.
func NewTokenBucket(cfg Config) *TokenBucket {
	cfg = applyDefaults(cfg)
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		config:  cfg,
	}
}

// Wait blocks until a token is available or context is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Allow returns true if a token is available immediately.
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Reserve returns the duration to wait for the next token without consuming it.
func (tb *TokenBucket) Reserve() time.Duration {
	now := time.Now()
	r := tb.current().ReserveN(now, 1)
	if !r.OK() {
		return tb.config.MaxBackoff
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// RetryAfter returns exponential backoff duration.
func (tb *TokenBucket) RetryAfter(attempt int) time.Duration {
	return CalculateBackoff(attempt, tb.config)
}

// Reset refills the bucket to full capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(rate.Limit(tb.config.RequestsPerSec), tb.config.Burst)
}
