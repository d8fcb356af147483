package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	resolver   *engine.Resolver
	classifier *engine.Classifier
	monitor    *engine.Monitor
	hooks      domain.LifecycleHooks
	streams    *Broadcaster

	demo              bool
	clock             func() time.Time
	newID             func() string
	criticalCountdown time.Duration
	followUpCountdown time.Duration

	// Countdowns run on root so they outlive the request that scheduled them.
	root    context.Context
	stop    context.CancelFunc
	pendMu  sync.Mutex
	pending map[string]*pendingAction
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithResolver sets the action resolver.
func WithResolver(r *engine.Resolver) Option {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithClassifier sets the intent classifier.
func WithClassifier(c *engine.Classifier) Option {
	return func(m *Manager) {
		m.classifier = c
	}
}

// WithMonitor sets the proactive alert monitor.
func WithMonitor(mon *engine.Monitor) Option {
	return func(m *Manager) {
		m.monitor = mon
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithDemoMode toggles the demo-only branches of the resolver. It defaults to on.
func WithDemoMode(demo bool) Option {
	return func(m *Manager) {
		m.demo = demo
	}
}

// WithClock overrides time.Now for audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithIDGenerator overrides the generator used when Start receives no ID.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newID = gen
	}
}

// WithCountdowns sets the delays before a critical alert and an urgent
// scan follow-up fire their auto-action.
func WithCountdowns(critical, followUp time.Duration) Option {
	return func(m *Manager) {
		m.criticalCountdown = critical
		m.followUpCountdown = followUp
	}
}

// NewManager creates a new Session Manager with the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	root, stop := context.WithCancel(context.Background())
	m := &Manager{
		store:             store,
		locks:             make(map[string]*lockEntry),
		lockTTL:           DefaultLockTTL,
		logger:            logging.NewNop(), // Default to no-op
		demo:              true,
		clock:             time.Now,
		newID:             uuid.NewString,
		criticalCountdown: engine.CriticalAlertCountdown,
		followUpCountdown: engine.UrgentFollowUpCountdown,
		root:              root,
		stop:              stop,
		pending:           make(map[string]*pendingAction),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.streams = NewBroadcaster(m.logger)
	if m.resolver == nil {
		m.resolver = engine.NewResolver(engine.WithLogger(m.logger))
	}
	if m.classifier == nil {
		m.classifier = engine.NewClassifier(engine.WithLogger(m.logger))
	}
	if m.monitor == nil {
		m.monitor = engine.NewMonitor(engine.WithLogger(m.logger))
	}
	return m
}

// Close cancels every pending countdown, waits for in-progress fires to return
// and clears the flag of every auto-action that never resolved.
func (m *Manager) Close() {
	m.stop()

	m.pendMu.Lock()
	waiting := make([]*pendingAction, 0, len(m.pending))
	for _, p := range m.pending {
		waiting = append(waiting, p)
	}
	m.pendMu.Unlock()

	for _, p := range waiting {
		<-p.countdown.Done()
		if !p.countdown.Fired() {
			m.forget(p.sessionID, p)
			m.drop(context.Background(), p.sessionID, p.action, "cancelled on shutdown")
		}
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start loads a session, creating it when missing. An empty ID gets a fresh UUID.
func (m *Manager) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}
	var session *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		session, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		session = domain.NewSession(sessionID, m.clock())

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, session); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Info("Session started", "session_id", sessionID)
		return nil
	})
	return session, err
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		session, err = m.store.Load(ctx, sessionID)
		return err
	})
	return session, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, session *domain.Session) error {
	return m.WithLock(ctx, session.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, session)
	})
}

// Delete cancels any pending auto-action and removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	m.cancelPending(sessionID)
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Resolver returns the action resolver used by Dispatch.
func (m *Manager) Resolver() *engine.Resolver {
	return m.resolver
}

// Classifier returns the intent classifier used by Chat.
func (m *Manager) Classifier() *engine.Classifier {
	return m.classifier
}

// Monitor returns the alert monitor used by CheckAlerts and Watch.
func (m *Manager) Monitor() *engine.Monitor {
	return m.monitor
}

// DemoMode reports whether dispatched actions take the demo-only branches.
func (m *Manager) DemoMode() bool {
	return m.demo
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Reset restores a session to its initial state and cancels any pending auto-action.
func (m *Manager) Reset(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.cancelPending(sessionID)
	return m.mutate(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
		now := m.clock()
		s.Reset(now)
		s.Log(now, domain.OriginSystem, "Session reset")
		return nil
	})
}

// Subscribe registers for the events of one session.
// The returned function unsubscribes and closes the channel.
func (m *Manager) Subscribe(sessionID string) (<-chan Event, func()) {
	return m.streams.Subscribe(sessionID)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return m.locked(ctx, sessionID, fn)
}

// tryWithLock is WithLock failing fast with ErrActionInFlight when the session is busy.
func (m *Manager) tryWithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	if !entry.mu.TryLock() {
		m.release(sessionID)
		return domain.ErrActionInFlight
	}
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return m.locked(ctx, sessionID, fn)
}

// locked runs fn under the distributed lock, if any. The local lock must be held.
func (m *Manager) locked(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// mutate loads a session under its lock, applies fn, saves it and publishes the diff.
func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) error) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		out, err = m.apply(ctx, sessionID, fn)
		return err
	})
	return out, err
}

// apply is the body of mutate. The session lock must be held.
func (m *Manager) apply(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) error) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	before := s.Snapshot()

	if err := fn(ctx, s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.clock()

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if diff := domain.Diff(before, s); diff != nil {
		m.streams.Broadcast(sessionID, Event{Type: domain.EventSessionUpdated, Data: diff})
	}
	return s.Snapshot(), nil
}

func (m *Manager) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: m.clock(), Type: t, SessionID: sessionID}
}
