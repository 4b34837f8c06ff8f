package readiness

import (
	"context"
	"errors"
	"fmt"
)

// ServiceRetries is the per-probe retry budget once the endpoint has answered.
const ServiceRetries = 2

// WaitForService blocks until the coordinator answers and then until it
// reports at least expected workers. Probe failures while waiting for the
// endpoint to come up are tolerated; a probe failure once it is up ends the
// wait with ErrTimeout. progress, when set, receives every observed count
// that differs from the previous one.
func WaitForService(ctx context.Context, p Poller, probe Counter, expected int, progress func(count int)) (int, error) {
	type observation struct {
		count int
		up    bool
	}

	first, err := Until(ctx, p, func(ctx context.Context) (observation, error) {
		n, err := probe.Count(ctx, 0)
		if err != nil {
			if ctx.Err() != nil {
				return observation{}, err
			}
			return observation{}, nil
		}
		return observation{count: n, up: true}, nil
	}, func(o observation) bool { return o.up })
	if err != nil {
		return 0, fmt.Errorf("waiting for coordinator: %w", err)
	}
	if expected <= 0 {
		return first.count, nil
	}

	previous := 0
	report := func(n int) {
		if progress != nil && n != previous {
			progress(n)
		}
		previous = n
	}
	report(first.count)
	if first.count >= expected {
		return first.count, nil
	}

	count, err := Until(ctx, p, func(ctx context.Context) (int, error) {
		n, err := probe.Count(ctx, ServiceRetries)
		if err != nil {
			if ctx.Err() != nil {
				return 0, err
			}
			return 0, errors.Join(ErrTimeout, err)
		}
		report(n)
		return n, nil
	}, func(n int) bool { return n >= expected })
	if err != nil {
		return 0, fmt.Errorf("waiting for %d workers: %w", expected, err)
	}
	return count, nil
}
