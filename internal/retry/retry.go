// Package retry drives operations against an eventually-consistent
// control plane until they converge.
//
// A freshly created cloud resource may be invisible to follow-up calls
// (tagging, association) for several seconds. Callers supply a
// classifier that recognizes those not-yet-visible failures; everything
// else is fatal and returned immediately. Retries are bounded: when the
// attempt budget runs out the last error is surfaced wrapped in
// ErrExhausted.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when an operation keeps failing transiently
// until the attempt budget is spent.
var ErrExhausted = errors.New("retries exhausted before the control plane converged")

// Classifier reports whether an error is a transient propagation delay
// worth retrying. A nil Classifier treats every error as fatal.
type Classifier func(error) bool

// Config holds retry configuration.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		MaxAttempts:  30,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Converge invokes operation until it succeeds, fails fatally, or the
// attempt budget is spent. Context cancellation is respected between
// attempts.
func Converge(ctx context.Context, operation func() error, transient Classifier, opts ...Option) error {
	_, err := Do(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, transient, opts...)
	return err
}

// Do is the result-returning form of Converge.
func Do[T any](ctx context.Context, operation func() (T, error), transient Classifier, opts ...Option) (T, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	// The operation always runs at least once.
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var zero T
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}
		if transient == nil || !transient(err) {
			return zero, err
		}
		lastErr = err

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, lastErr)
}

// WithMaxAttempts sets the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}
