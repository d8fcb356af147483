package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/ports"
)

// Delay is a simulated latency window: Min plus a uniform share of Spread.
type Delay struct {
	Min    time.Duration `mapstructure:"min" yaml:"min"`
	Spread time.Duration `mapstructure:"spread" yaml:"spread"`
}

// Default latency windows.
var (
	ResolveDelay  = Delay{Min: 1500 * time.Millisecond, Spread: time.Second}
	ClassifyDelay = Delay{Min: 1500 * time.Millisecond, Spread: 2 * time.Second}
	AlertDelay    = Delay{Min: 3 * time.Second, Spread: 2 * time.Second}
)

// At returns the delay for the uniform draw r.
func (d Delay) At(r float64) time.Duration {
	return d.Min + time.Duration(r*float64(d.Spread))
}

type options struct {
	random  ports.RandomSource
	waiter  ports.Waiter
	logger  *slog.Logger
	clock   func() time.Time
	delay   *Delay
	weights Weights
}

// Option configures the resolver, the classifier and the monitor.
type Option func(*options)

// WithRandom sets the source behind every weighted draw.
func WithRandom(r ports.RandomSource) Option {
	return func(o *options) {
		o.random = r
	}
}

// WithWaiter sets the suspension primitive used for simulated delays.
// Pass ports.NoWait in tests.
func WithWaiter(w ports.Waiter) Option {
	return func(o *options) {
		o.waiter = w
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides time.Now for timestamps embedded in results.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithDelay overrides the component's default latency window.
func WithDelay(d Delay) Option {
	return func(o *options) {
		o.delay = &d
	}
}

// WithWeights overrides the branch weights of the action resolver.
func WithWeights(w Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}

func newOptions(delay Delay, opts []Option) options {
	o := options{
		random:  ports.DefaultRandom,
		waiter:  ports.TimerWait,
		logger:  logging.NewNop(),
		clock:   time.Now,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.delay == nil {
		o.delay = &delay
	}
	return o
}

// pause draws the simulated latency and waits for it.
func (o *options) pause(ctx context.Context) error {
	return o.waiter.Wait(ctx, o.delay.At(o.random.Float64()))
}
