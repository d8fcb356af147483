package vaultguard

import (
	"context"
	"log/slog"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/adapters/memory"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/aretw0/vaultguard/pkg/session"
)

// Guard is the high-level entry point for the VaultGuard library.
// It wires the resolver, classifier and monitor behind one session Manager.
type Guard struct {
	manager     *session.Manager
	store       ports.SessionStore
	locker      ports.DistributedLocker
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	demo        bool
	engineOpts  []engine.Option
	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Guard.
type Option func(*Guard)

// WithStore replaces the default in-memory session store.
func WithStore(store ports.SessionStore) Option {
	return func(g *Guard) {
		g.store = store
	}
}

// WithLocker serializes session mutations across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Guard) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithDemoMode toggles the demo bias of session dispatches (default: true).
func WithDemoMode(demo bool) Option {
	return func(g *Guard) {
		g.demo = demo
	}
}

// WithEngineOptions applies opts to the resolver, classifier and monitor alike.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(g *Guard) {
		g.engineOpts = append(g.engineOpts, opts...)
	}
}

// WithSessionOptions passes extra options to the session Manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(g *Guard) {
		g.sessionOpts = append(g.sessionOpts, opts...)
	}
}

// New initializes a Guard. Without options it keeps sessions in memory.
func New(opts ...Option) *Guard {
	g := &Guard{demo: true}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = memory.NewStore()
	}
	if g.logger == nil {
		g.logger = logging.NewNop()
	}

	engineOpts := append([]engine.Option{engine.WithLogger(g.logger)}, g.engineOpts...)
	sessionOpts := []session.Option{
		session.WithLogger(g.logger),
		session.WithResolver(engine.NewResolver(engineOpts...)),
		session.WithClassifier(engine.NewClassifier(engineOpts...)),
		session.WithMonitor(engine.NewMonitor(engineOpts...)),
		session.WithLifecycleHooks(g.hooks),
		session.WithDemoMode(g.demo),
	}
	if g.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(g.locker))
	}
	g.manager = session.NewManager(g.store, append(sessionOpts, g.sessionOpts...)...)
	return g
}

// Manager returns the session Manager behind the Guard.
func (g *Guard) Manager() *session.Manager {
	return g.manager
}

// Resolve simulates one action without touching any session.
func (g *Guard) Resolve(ctx context.Context, action string, demo bool) (domain.ActionResult, error) {
	return g.manager.Resolver().Decide(ctx, engine.ActionRequest{Action: action, DemoMode: demo})
}

// Classify answers a chat message without touching any session.
// It returns the reply and the matched intent.
func (g *Guard) Classify(ctx context.Context, req engine.ChatRequest) (domain.ChatTurn, string, error) {
	return g.manager.Classifier().Decide(ctx, req)
}

// Check evaluates raw metrics against the alert thresholds.
func (g *Guard) Check(ctx context.Context, riskScore, ltv float64) (domain.Alert, bool, error) {
	return g.manager.Monitor().Check(ctx, riskScore, ltv)
}

// Start creates or resumes a session.
func (g *Guard) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	return g.manager.Start(ctx, sessionID)
}

// Dispatch runs an action against a session as the user.
func (g *Guard) Dispatch(ctx context.Context, sessionID, action string) (domain.ActionResult, error) {
	return g.manager.Dispatch(ctx, sessionID, action, domain.OriginUser)
}

// Chat classifies a message in the context of a session and runs the action it triggers.
func (g *Guard) Chat(ctx context.Context, sessionID, message string) (session.ChatReply, error) {
	return g.manager.Chat(ctx, sessionID, message)
}

// Close cancels pending auto-actions.
func (g *Guard) Close() {
	g.manager.Close()
}
