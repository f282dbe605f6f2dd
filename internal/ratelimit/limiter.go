package ratelimit

import (
	"context"
	"time"
)

// Limiter gates outbound requests to one upstream source.
type Limiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	Reserve() time.Duration
	RetryAfter(attempt int) time.Duration
	Reset()
}

// Strategy defines the rate limiting strategy.
type Strategy string

const (
	StrategyTokenBucket Strategy = "token_bucket"
	StrategyFixedDelay  Strategy = "fixed_delay"
	StrategyNone        Strategy = "none"
)

// NewLimiter creates a rate limiter based on config.
func NewLimiter(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	switch cfg.Strategy {
	case StrategyFixedDelay:
		return NewFixedDelayLimiter(cfg)
	case StrategyNone:
		return Unlimited{config: cfg}
	default:
		return NewTokenBucket(cfg)
	}
}

// Unlimited never waits; it still computes retry backoff.
type Unlimited struct {
	config Config
}

func (Unlimited) Wait(ctx context.Context) error         { return ctx.Err() }
func (Unlimited) Allow() bool                            { return true }
func (Unlimited) Reserve() time.Duration                 { return 0 }
func (u Unlimited) RetryAfter(attempt int) time.Duration { return CalculateBackoff(attempt, u.config) }
func (Unlimited) Reset()                                 {}
