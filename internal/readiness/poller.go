package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a poll gives up before its condition holds.
var ErrTimeout = errors.New("timed out waiting for condition")

// DefaultInterval is used when a Poller has no interval set.
const DefaultInterval = time.Second

// Poller bounds a polling loop. Zero Timeout and MaxAttempts mean unbounded.
type Poller struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
	// OnAttempt, when set, is called after every fetch.
	OnAttempt func(attempt int)
}

// Until calls fetch until done reports true for its result. A fetch error
// stops polling and is returned as is.
func Until[T any](ctx context.Context, p Poller, fetch func(context.Context) (T, error), done func(T) bool) (T, error) {
	var zero T

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.Timeout, ErrTimeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		v, err := fetch(ctx)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt)
		}
		if err != nil {
			if ctx.Err() != nil {
				return zero, stopped(ctx, attempt)
			}
			return zero, err
		}
		if done(v) {
			return v, nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("%w: condition not met after %d attempts", ErrTimeout, attempt)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, stopped(ctx, attempt)
		case <-timer.C:
		}
	}
}

func stopped(ctx context.Context, attempt int) error {
	if errors.Is(context.Cause(ctx), ErrTimeout) {
		return fmt.Errorf("%w after %d attempts", ErrTimeout, attempt)
	}
	return fmt.Errorf("polling cancelled after %d attempts: %w", attempt, ctx.Err())
}
