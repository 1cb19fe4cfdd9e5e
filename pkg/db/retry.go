package db

import (
	"context"
	"time"
)

// RetryConfig controls the exponential backoff applied to store calls
// that fail with a transient infrastructure error, per SPEC_FULL.md §5
// ("retry with exponential backoff: 5 attempts, 300ms*2^n, capped").
type RetryConfig struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
}

// DefaultRetry is the spec-mandated policy: 5 attempts, 300ms base,
// doubling each attempt, capped at 5s.
var DefaultRetry = RetryConfig{Attempts: 5, Base: 300 * time.Millisecond, Cap: 5 * time.Second}

// WithRetry runs fn, retrying transient failures under the given
// policy. fn should return a nil error only on success; any non-nil
// error is treated as transient and retried until attempts are
// exhausted, at which point the last error is returned.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultRetry.Attempts
	}
	if cfg.Base <= 0 {
		cfg.Base = DefaultRetry.Base
	}
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultRetry.Cap
	}

	var lastErr error
	delay := cfg.Base
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.Attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.Cap {
			delay = cfg.Cap
		}
	}
	return lastErr
}
