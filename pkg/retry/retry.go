// Package retry runs operations with exponential backoff. Callers mark
// failures that must not be retried with Permanent.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- fraction applied to each delay
}

// DefaultConfig returns defaults for calls to external services:
// 3 retries with 100ms initial delay, capped at 5s, doubling each time, with 10% jitter
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Permanent wraps err so that Do and DoWithResult return it without retrying.
// The returned error from Do is err itself, not the wrapper.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do executes fn with exponential backoff retry logic.
// Returns nil on success, or the last error after all retries are exhausted.
// Context cancellation ends the wait and returns ctx.Err().
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	return backoff.Retry(fn, policy(ctx, cfg))
}

// DoWithResult executes fn and returns both result and error.
// Useful for constructors that return values (like database.Open).
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return backoff.RetryWithData(fn, policy(ctx, cfg))
}

func policy(ctx context.Context, cfg *Config) backoff.BackOff {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.JitterFactor
	b.MaxElapsedTime = 0 // bounded by MaxRetries
	b.Reset()

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
