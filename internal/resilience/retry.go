package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy is an explicit retry policy passed to the model client rather than
// an ambient decorator, so it is independently testable.
type Policy struct {
	// MaxAttempts counts the first try as attempt one. 1 disables retries.
	MaxAttempts int
	// InitialDelay is the sleep before the first retry.
	InitialDelay time.Duration
	// Multiplier scales the delay after each attempt.
	Multiplier float64
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
}

// DefaultPolicy matches the extraction pipeline's requirements: a small fixed
// attempt count with exponential backoff from a sub-second delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 500 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// Do runs fn under the policy, retrying transient errors only. The returned
// error after exhausting attempts is the last failure, which callers treat as
// terminal. Context cancellation stops immediately.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var lastErr error
	delay := p.InitialDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) {
			return zero, lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		zap.L().Warn("retrying after transient failure",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return zero, lastErr
}
