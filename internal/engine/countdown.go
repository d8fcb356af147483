package engine

import (
	"context"
	"sync"
	"time"
)

// Default countdowns before an auto-action resolves.
const (
	CriticalAlertCountdown  = 10 * time.Second
	UrgentFollowUpCountdown = 8 * time.Second
)

type countdownState int

const (
	countdownPending countdownState = iota
	countdownFired
	countdownCancelled
)

// Countdown runs a function once after a delay unless cancelled first.
type Countdown struct {
	deadline time.Time
	cancel   chan struct{}
	done     chan struct{}

	mu    sync.Mutex
	state countdownState
}

// Schedule starts a countdown that calls fire with ctx after the given delay.
// Cancelling ctx cancels the countdown.
func Schedule(ctx context.Context, after time.Duration, fire func(context.Context)) *Countdown {
	c := &Countdown{
		deadline: time.Now().Add(after),
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run(ctx, after, fire)
	return c
}

func (c *Countdown) run(ctx context.Context, after time.Duration, fire func(context.Context)) {
	defer close(c.done)

	timer := time.NewTimer(after)
	defer timer.Stop()

	select {
	case <-c.cancel:
		return
	case <-ctx.Done():
		c.transition(countdownCancelled)
		return
	case <-timer.C:
	}

	if c.transition(countdownFired) {
		fire(ctx)
	}
}

// transition moves a pending countdown to the given state.
func (c *Countdown) transition(to countdownState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != countdownPending {
		return false
	}
	c.state = to
	return true
}

// Cancel stops the countdown. It reports whether this call prevented the fire;
// it is a no-op returning false once the countdown fired or was cancelled.
func (c *Countdown) Cancel() bool {
	if !c.transition(countdownCancelled) {
		return false
	}
	close(c.cancel)
	return true
}

// Done is closed when the countdown finished, by firing or by cancellation.
// When it fired, Done closes after the fire function returned.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Fired reports whether the fire function was (or is being) called.
func (c *Countdown) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == countdownFired
}

// Pending reports whether the countdown can still be cancelled.
func (c *Countdown) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == countdownPending
}

// Remaining returns the time left before the fire, or zero once settled.
func (c *Countdown) Remaining() time.Duration {
	if !c.Pending() {
		return 0
	}
	return max(0, time.Until(c.deadline))
}
