// Package resilience provides retry with exponential backoff for the paid
// API clients. Only transient failures (429, 5xx, network timeouts) are
// retried so quota and auth errors surface immediately.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first
	// try. Default 3.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Default 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps the computed delay. Default 30s.
	MaxBackoff time.Duration
	// ShouldRetry overrides the default transient-error check.
	ShouldRetry func(err error) bool
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return cfg
}

// Do calls fn until it succeeds, the error is not transient, the attempts
// run out, or ctx is cancelled. The delay doubles each attempt with ±25%
// jitter.
func Do[T any](ctx context.Context, cfg RetryConfig, service string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == cfg.MaxAttempts-1 {
			break
		}

		zap.L().Warn("retrying after transient error",
			zap.String("service", service),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		timer := time.NewTimer(backoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	delay = min(delay, float64(cfg.MaxBackoff))

	// ±25% jitter keeps concurrent workers from retrying in lockstep.
	delay += (rand.Float64() - 0.5) * 0.5 * delay
	return time.Duration(delay)
}
