// Package retry provides a small bounded retry helper with exponential
// backoff. The balance fetch deliberately does not use it; the polling
// loop is its retry mechanism.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/account-explorer/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns the default backoff: 500ms, 1s, 2s, capped at 5s
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is an operation that can be retried
type Func func(ctx context.Context, attempt int) error

// Do runs fn up to MaxAttempts times with exponential backoff, honoring
// context cancellation between attempts.
func Do(ctx context.Context, cfg *Config, fn Func) error {
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := fn(ctx, attempt); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoffDelay(cfg, attempt)
		logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   lastErr.Error(),
		}).Warn("operation failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func backoffDelay(cfg *Config, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
