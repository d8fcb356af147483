package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/domain"
)

// Dispatch resolves action for a session and applies the result.
// Calls for the same session are serialized; a second call waits for the lock.
// A user-initiated result flagged urgent schedules its follow-up as an auto-action.
func (m *Manager) Dispatch(ctx context.Context, sessionID, action string, origin domain.Origin) (domain.ActionResult, error) {
	var res domain.ActionResult
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		res, err = m.dispatch(ctx, sessionID, action, origin)
		return err
	})
	return res, err
}

// TryDispatch is Dispatch returning domain.ErrActionInFlight instead of waiting
// when the session is already resolving an action.
func (m *Manager) TryDispatch(ctx context.Context, sessionID, action string, origin domain.Origin) (domain.ActionResult, error) {
	var res domain.ActionResult
	err := m.tryWithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		res, err = m.dispatch(ctx, sessionID, action, origin)
		return err
	})
	return res, err
}

// dispatch requires the session lock.
func (m *Manager) dispatch(ctx context.Context, sessionID, action string, origin domain.Origin) (domain.ActionResult, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.ActionResult{}, fmt.Errorf("%w: action is required", domain.ErrInvalidRequest)
	}

	var res domain.ActionResult
	queue := false
	started := m.clock()
	_, err := m.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		s.Step++
		s.Status = domain.AgentScanning

		var err error
		res, err = m.resolver.Resolve(ctx, action, m.demo)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", action, err)
		}

		s.ApplyResult(action, res, origin, m.clock())
		s.Status = domain.AgentActive
		if origin == domain.OriginAuto && s.PendingAutoAction == action {
			s.PendingAutoAction = ""
		}

		if res.Urgent() && origin == domain.OriginUser && !m.hasPending(sessionID) {
			queue = true
			s.PendingAutoAction = res.FollowUp()
			s.Log(m.clock(), domain.OriginSystem, "Auto-action queued: %s in %s", res.FollowUp(), m.followUpCountdown)
		}
		return nil
	})
	if err != nil {
		return domain.ActionResult{}, err
	}
	if queue {
		m.schedule(sessionID, res.FollowUp(), m.followUpCountdown)
	}

	elapsed := m.clock().Sub(started)
	m.logger.Info("Action dispatched",
		"session_id", sessionID,
		"action", action,
		"origin", origin,
		"severity", res.Severity,
		"duration", elapsed,
	)
	ev := &domain.ActionEvent{
		EventBase: m.base(domain.EventActionResolved, sessionID),
		Action:    action,
		Origin:    origin,
		Result:    res,
		Duration:  elapsed,
	}
	if m.hooks.OnActionResolved != nil {
		m.hooks.OnActionResolved(ctx, ev)
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventActionResolved, Data: ev})
	return res, nil
}

// ChatReply is the outcome of a chat message.
// Result is set when the reply triggered an action.
type ChatReply struct {
	Turn   domain.ChatTurn      `json:"turn"`
	Intent string               `json:"intent"`
	Result *domain.ActionResult `json:"result,omitempty"`
}

// Chat classifies message in the context of the session, records the exchange
// and dispatches the triggered action, if any.
func (m *Manager) Chat(ctx context.Context, sessionID, message string) (ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return ChatReply{}, fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}

	var reply ChatReply
	_, err := m.mutate(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		req := engine.ChatRequest{
			UserMessage:  message,
			Status:       s.Status,
			Step:         s.Step,
			AuditSummary: s.AuditSummary(),
		}
		if s.RecommendedAction != "" {
			rec := s.RecommendedAction
			req.RecommendedAction = &rec
		}

		turn, intent, err := m.classifier.Classify(ctx, req)
		if err != nil {
			return err
		}
		reply.Turn, reply.Intent = turn, intent

		now := m.clock()
		if s.Status == domain.AgentIdle {
			s.Status = domain.AgentActive
		}
		s.Log(now, domain.OriginUser, "User: %s", message)
		s.Log(now, domain.OriginSystem, "Eliza replied (%s intent)", intent)
		return nil
	})
	if err != nil {
		return ChatReply{}, err
	}

	m.logger.Debug("Chat classified", "session_id", sessionID, "intent", reply.Intent, "trigger", reply.Turn.Trigger())
	if m.hooks.OnIntentClassified != nil {
		m.hooks.OnIntentClassified(ctx, &domain.IntentEvent{
			EventBase: m.base(domain.EventIntentClassified, sessionID),
			Intent:    reply.Intent,
			Turn:      reply.Turn,
		})
	}
	m.streams.Broadcast(sessionID, Event{Type: domain.EventIntentClassified, Data: reply})

	if action := reply.Turn.Trigger(); action != "" {
		res, err := m.Dispatch(ctx, sessionID, action, domain.OriginUser)
		if err != nil {
			return reply, err
		}
		reply.Result = &res
	}
	return reply, nil
}
