package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventActionResolved      EventType = "action_resolved"
	EventIntentClassified    EventType = "intent_classified"
	EventAlertRaised         EventType = "alert_raised"
	EventAutoActionScheduled EventType = "auto_action_scheduled"
	EventAutoActionFired     EventType = "auto_action_fired"
	EventAutoActionCancelled EventType = "auto_action_cancelled"
	EventSessionUpdated      EventType = "session_updated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// ActionEvent reports a resolved action.
type ActionEvent struct {
	EventBase
	Action   string        `json:"action"`
	Origin   Origin        `json:"origin"`
	Result   ActionResult  `json:"result"`
	Duration time.Duration `json:"duration"`
}

// IntentEvent reports a classified chat message.
type IntentEvent struct {
	EventBase
	Intent string   `json:"intent"`
	Turn   ChatTurn `json:"turn"`
}

// AlertEvent reports a proactive alert.
type AlertEvent struct {
	EventBase
	Alert Alert `json:"alert"`
}

// AutoActionEvent reports the lifecycle of an auto-action countdown.
type AutoActionEvent struct {
	EventBase
	Action string        `json:"action"`
	After  time.Duration `json:"after,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnActionResolved      func(context.Context, *ActionEvent)
	OnIntentClassified    func(context.Context, *IntentEvent)
	OnAlertRaised         func(context.Context, *AlertEvent)
	OnAutoActionScheduled func(context.Context, *AutoActionEvent)
	OnAutoActionFired     func(context.Context, *AutoActionEvent)
	OnAutoActionCancelled func(context.Context, *AutoActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnActionResolved:      chain(h.OnActionResolved, other.OnActionResolved),
		OnIntentClassified:    chain(h.OnIntentClassified, other.OnIntentClassified),
		OnAlertRaised:         chain(h.OnAlertRaised, other.OnAlertRaised),
		OnAutoActionScheduled: chain(h.OnAutoActionScheduled, other.OnAutoActionScheduled),
		OnAutoActionFired:     chain(h.OnAutoActionFired, other.OnAutoActionFired),
		OnAutoActionCancelled: chain(h.OnAutoActionCancelled, other.OnAutoActionCancelled),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
