package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/domain"
)

// CheckAlerts runs one proactive check on a session.
// It returns nil when the session is not connected, has an auto-action pending
// or its metrics are calm. A critical alert queues its auto-action.
func (m *Manager) CheckAlerts(ctx context.Context, sessionID string) (*domain.Alert, error) {
	s, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !m.eligible(s) {
		return nil, nil
	}

	alert, ok, err := m.monitor.Check(ctx, s.Metrics.RiskScore, s.Metrics.LTV)
	if err != nil || !ok {
		return nil, err
	}
	if err := m.raise(ctx, sessionID, alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Watch runs the proactive monitor over every eligible session until ctx is done.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) error {
	m.logger.Info("Proactive monitor started", "interval", interval)
	err := m.monitor.Run(ctx, interval, m.probe, func(ctx context.Context, sessionID string, alert domain.Alert) {
		if err := m.raise(ctx, sessionID, alert); err != nil {
			m.logger.Warn("Failed to raise proactive alert", "session_id", sessionID, "err", err)
		}
	})
	m.logger.Info("Proactive monitor stopped")
	return err
}

func (m *Manager) probe(ctx context.Context) ([]engine.Reading, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	readings := make([]engine.Reading, 0, len(ids))
	for _, id := range ids {
		s, err := m.store.Load(ctx, id)
		if err != nil {
			// Sessions may expire between List and Load.
			continue
		}
		if m.eligible(s) {
			readings = append(readings, engine.Reading{Key: id, RiskScore: s.Metrics.RiskScore, LTV: s.Metrics.LTV})
		}
	}
	return readings, nil
}

// eligible skips sessions with a live countdown. A persisted flag with no
// countdown in this process is stale and does not block alerts.
func (m *Manager) eligible(s *domain.Session) bool {
	if !s.Connected || s.VaultsDetected == 0 {
		return false
	}
	return s.PendingAutoAction == "" || !m.hasPending(s.ID)
}

// raise records an alert on the session, updates its recommendation and,
// for critical alerts, queues the auto-action once the session is saved.
func (m *Manager) raise(ctx context.Context, sessionID string, alert domain.Alert) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		queue := false
		_, err := m.apply(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
			now := m.clock()
			s.Log(now, domain.OriginSystem, "PROACTIVE ALERT: %s", alert.Message)
			if len(alert.ServiceTagsTriggered) > 0 {
				s.Log(now, domain.OriginSystem, "Services Triggered: %s", strings.Join(alert.ServiceTagsTriggered, ", "))
			}
			s.RecommendedAction = alert.AutoAction

			if alert.Urgency == domain.UrgencyCritical && !m.hasPending(sessionID) {
				queue = true
				s.PendingAutoAction = alert.AutoAction
				s.Log(now, domain.OriginSystem, "Auto-action queued: %s in %s", alert.AutoAction, m.criticalCountdown)
			}
			return nil
		})
		if err == nil && queue {
			m.schedule(sessionID, alert.AutoAction, m.criticalCountdown)
		}
		return err
	})
	if err != nil {
		return err
	}

	m.logger.Info("Alert raised", "session_id", sessionID, "urgency", alert.Urgency, "auto_action", alert.AutoAction)
	if m.hooks.OnAlertRaised != nil {
		m.hooks.OnAlertRaised(ctx, &domain.AlertEvent{
			EventBase: m.base(domain.EventAlertRaised, sessionID),
			Alert:     alert,
		})
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventAlertRaised, Data: alert})
	return nil
}

// pendingAction is a queued auto-action and its countdown.
type pendingAction struct {
	sessionID string
	action    string
	countdown *engine.Countdown
}

// schedule starts an auto-action countdown unless one is already pending.
// Callers hold the session lock and have saved the session with its flag set.
func (m *Manager) schedule(sessionID, action string, after time.Duration) bool {
	m.pendMu.Lock()
	defer m.pendMu.Unlock()

	if _, busy := m.pending[sessionID]; busy {
		return false
	}
	p := &pendingAction{sessionID: sessionID, action: action}
	p.countdown = engine.Schedule(m.root, after, func(ctx context.Context) {
		m.fire(ctx, sessionID, p)
	})
	m.pending[sessionID] = p

	ev := &domain.AutoActionEvent{
		EventBase: m.base(domain.EventAutoActionScheduled, sessionID),
		Action:    action,
		After:     after,
	}
	m.logger.Info("Auto-action scheduled", "session_id", sessionID, "action", action, "after", after)
	if m.hooks.OnAutoActionScheduled != nil {
		m.hooks.OnAutoActionScheduled(m.root, ev)
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventAutoActionScheduled, Data: ev})
	return true
}

// fire stays registered as pending until its dispatch returns, so no second
// countdown is queued for the session meanwhile.
func (m *Manager) fire(ctx context.Context, sessionID string, p *pendingAction) {
	defer m.forget(sessionID, p)

	ev := &domain.AutoActionEvent{
		EventBase: m.base(domain.EventAutoActionFired, sessionID),
		Action:    p.action,
	}
	if m.hooks.OnAutoActionFired != nil {
		m.hooks.OnAutoActionFired(ctx, ev)
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventAutoActionFired, Data: ev})

	if _, err := m.Dispatch(ctx, sessionID, p.action, domain.OriginAuto); err != nil {
		m.logger.Warn("Auto-action failed", "session_id", sessionID, "action", p.action, "err", err)
		m.drop(context.WithoutCancel(ctx), sessionID, p.action, "failed")
	}
}

// drop clears the persisted flag of an auto-action that ended without resolving.
func (m *Manager) drop(ctx context.Context, sessionID, action, reason string) {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.PendingAutoAction != action {
			return nil
		}
		_, err = m.apply(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
			s.PendingAutoAction = ""
			s.Log(m.clock(), domain.OriginSystem, "Auto-action dropped: %s (%s)", action, reason)
			return nil
		})
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.logger.Warn("Failed to clear auto-action", "session_id", sessionID, "action", action, "err", err)
	}
}

func (m *Manager) hasPending(sessionID string) bool {
	m.pendMu.Lock()
	defer m.pendMu.Unlock()
	_, ok := m.pending[sessionID]
	return ok
}

func (m *Manager) forget(sessionID string, p *pendingAction) {
	m.pendMu.Lock()
	defer m.pendMu.Unlock()
	if m.pending[sessionID] == p {
		delete(m.pending, sessionID)
	}
}

// CancelAutoAction stops the pending countdown of a session.
// A stale flag left by a countdown that no longer runs is cleared the same way.
// It returns domain.ErrNoPendingAction when nothing is pending or the countdown already fired.
func (m *Manager) CancelAutoAction(ctx context.Context, sessionID string) error {
	var action string
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		var ok bool
		if action, ok = m.cancelPending(sessionID); !ok {
			if s.PendingAutoAction == "" || m.hasPending(sessionID) {
				return domain.ErrNoPendingAction
			}
			action = s.PendingAutoAction
		}
		_, err = m.apply(ctx, sessionID, func(_ context.Context, s *domain.Session) error {
			s.PendingAutoAction = ""
			s.Log(m.clock(), domain.OriginUser, "Auto-action cancelled: %s", action)
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	ev := &domain.AutoActionEvent{
		EventBase: m.base(domain.EventAutoActionCancelled, sessionID),
		Action:    action,
	}
	m.logger.Info("Auto-action cancelled", "session_id", sessionID, "action", action)
	if m.hooks.OnAutoActionCancelled != nil {
		m.hooks.OnAutoActionCancelled(ctx, ev)
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventAutoActionCancelled, Data: ev})
	return nil
}

// cancelPending cancels and forgets the countdown of a session.
// It returns the queued action when the cancellation prevented a fire.
func (m *Manager) cancelPending(sessionID string) (string, bool) {
	m.pendMu.Lock()
	p, ok := m.pending[sessionID]
	m.pendMu.Unlock()
	if !ok || !p.countdown.Cancel() {
		return "", false
	}
	m.forget(sessionID, p)
	return p.action, true
}

// PendingAutoAction reports the queued action of a session and the time left before it fires.
func (m *Manager) PendingAutoAction(sessionID string) (string, time.Duration, bool) {
	m.pendMu.Lock()
	p, ok := m.pending[sessionID]
	m.pendMu.Unlock()
	if !ok || !p.countdown.Pending() {
		return "", 0, false
	}
	return p.action, p.countdown.Remaining(), true
}
