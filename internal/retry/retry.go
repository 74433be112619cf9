package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule: up to MaxAttempts tries with a
// linearly growing delay between them (BaseDelay × attempt number).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error // nil -> real sleep
}

// Backoff returns the delay to wait after the given 1-based attempt fails.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. retryable decides whether an error is worth another try;
// nil means every error is retryable. The last error is returned on
// exhaustion.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = realSleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt < attempts {
			if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
				return serr
			}
		}
	}
	return err
}

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
