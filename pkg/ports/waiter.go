package ports

import (
	"context"
	"time"
)

// Waiter is the suspension primitive behind every simulated delay.
type Waiter interface {
	// Wait blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Wait(ctx context.Context, d time.Duration) error
}

// WaitFunc adapts a plain function to Waiter.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Wait calls f.
func (f WaitFunc) Wait(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// NoWait returns immediately unless the context is already done.
var NoWait Waiter = WaitFunc(func(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
})

// TimerWait sleeps on a real timer.
var TimerWait Waiter = WaitFunc(func(ctx context.Context, d time.Duration) error {
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
})
