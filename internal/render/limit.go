package render

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Limiter bounds a Backend with a per-render timeout and a maximum number of
// renders in flight. Callers beyond the bound wait for a slot until their
// context (including the timeout) ends.
type Limiter struct {
	next    Backend
	slots   chan struct{}
	timeout time.Duration
}

// Limit wraps next. A non-positive maxConcurrent means unbounded; a
// non-positive timeout means no deadline beyond the caller's context.
func Limit(next Backend, maxConcurrent int, timeout time.Duration) *Limiter {
	l := &Limiter{next: next, timeout: timeout}
	if maxConcurrent > 0 {
		l.slots = make(chan struct{}, maxConcurrent)
	}
	return l
}

// Render implements Backend.
func (l *Limiter) Render(ctx context.Context, req Request) (*Result, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if l.slots != nil {
		select {
		case l.slots <- struct{}{}:
			defer func() { <-l.slots }()
		case <-ctx.Done():
			return nil, l.contextError(ctx, "waiting for a render slot")
		}
	}

	res, err := l.next.Render(ctx, req)
	if err != nil && ctx.Err() != nil {
		return nil, l.contextError(ctx, "rendering")
	}
	return res, err
}

func (l *Limiter) contextError(ctx context.Context, stage string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if l.timeout > 0 {
			return fmt.Errorf("%w after %s while %s", ErrTimeout, l.timeout, stage)
		}
		return fmt.Errorf("%w while %s", ErrTimeout, stage)
	}
	return fmt.Errorf("render cancelled while %s: %w", stage, ctx.Err())
}
