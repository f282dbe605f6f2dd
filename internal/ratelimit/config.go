package ratelimit

import "time"

// Config holds rate limiter and retry configuration for one source.
type Config struct {
	Strategy          Strategy      `yaml:"strategy" json:"strategy" koanf:"strategy" validate:"omitempty,oneof=token_bucket fixed_delay none"`
	RequestsPerSec    float64       `yaml:"requests_per_second" json:"requests_per_second" koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `yaml:"burst" json:"burst" koanf:"burst" validate:"gte=0"`
	FixedDelay        time.Duration `yaml:"fixed_delay" json:"fixed_delay" koanf:"fixed_delay" validate:"gte=0"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries" koanf:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" json:"initial_backoff" koanf:"initial_backoff" validate:"gte=0"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff" koanf:"max_backoff" validate:"gte=0"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier" koanf:"backoff_multiplier" validate:"omitempty,gte=1"`
}

// DefaultConfig returns polite defaults for public open-data portals.
func DefaultConfig() Config {
	return Config{
		Strategy:          StrategyTokenBucket,
		RequestsPerSec:    2.0,
		Burst:             2,
		FixedDelay:        500 * time.Millisecond,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.FixedDelay <= 0 {
		cfg.FixedDelay = def.FixedDelay
	}
	return cfg
}

// Normalize fills unset fields with defaults.
func Normalize(cfg Config) Config {
	return applyDefaults(cfg)
}
