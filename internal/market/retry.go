package market

import (
	"context"
	"fmt"
	"time"

	"solhelm/internal/logger"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 500 * time.Millisecond
)

// Retrier bounds transient provider failures. Delays grow as base x 2^attempt.
type Retrier struct {
	Attempts  int
	BaseDelay time.Duration
	sleepFn   func(ctx context.Context, d time.Duration) error
}

func NewRetrier() *Retrier {
	return &Retrier{Attempts: defaultAttempts, BaseDelay: defaultBaseDelay, sleepFn: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn up to r.Attempts times. The caller degrades to a safe
// default once the wrapped error comes back; Retry never panics the cycle.
func Retry[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		if attempt > 0 {
			delay := r.BaseDelay * time.Duration(1<<uint(attempt-1))
			logger.Debugf("%s: attempt %d/%d after %s: %v", op, attempt+1, r.Attempts, delay, lastErr)
			if err := r.sleepFn(ctx, delay); err != nil {
				return zero, fmt.Errorf("%s: %w (last error: %v)", op, err, lastErr)
			}
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, fmt.Errorf("%s: %d attempts exhausted: %w", op, r.Attempts, lastErr)
}
