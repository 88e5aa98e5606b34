// Package poll implements the consumer-side polling policy for
// long-running jobs: exponential backoff with a bounded attempt budget.
// The policy belongs to the caller, not the job tracker.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
)

// Config controls the backoff schedule.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultConfig returns the standard schedule: 2s doubling to 8s, up to
// 40 attempts (about two minutes of wall time).
func DefaultConfig() Config {
	return Config{
		InitialDelay: 2 * time.Second,
		MaxDelay:     8 * time.Second,
		MaxAttempts:  40,
	}
}

// Func performs one poll attempt. It returns true when the job reached a
// terminal state. Returning a RateLimitedError makes the loop sleep the
// suggested delay and resume; any other error aborts the loop.
type Func func(ctx context.Context) (done bool, err error)

// Run polls fn until it reports done, fails, or the attempt budget runs
// out, in which case a TimeoutError is returned.
func Run(ctx context.Context, cfg Config, fn Func) error {
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		done, err := fn(ctx)
		if done {
			return nil
		}

		sleep := delay
		if err != nil {
			var rateLimited *apperr.RateLimitedError
			if !errors.As(err, &rateLimited) {
				return err
			}
			sleep = rateLimited.RetryAfter
		} else {
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}

	return apperr.NewTimeout("job did not finish within %d poll attempts", cfg.MaxAttempts)
}
