package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// LogHooks writes one structured line per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionResolved: func(ctx context.Context, e *domain.ActionEvent) {
			logger.InfoContext(ctx, "action_resolved",
				"session_id", e.SessionID,
				"action", e.Action,
				"origin", e.Origin,
				"severity", e.Result.Severity,
				"follow_up", e.Result.FollowUp(),
				"duration", e.Duration,
			)
		},
		OnIntentClassified: func(ctx context.Context, e *domain.IntentEvent) {
			logger.InfoContext(ctx, "intent_classified",
				"session_id", e.SessionID,
				"intent", e.Intent,
				"trigger", e.Turn.Trigger(),
			)
		},
		OnAlertRaised: func(ctx context.Context, e *domain.AlertEvent) {
			logger.WarnContext(ctx, "alert_raised",
				"session_id", e.SessionID,
				"urgency", e.Alert.Urgency,
				"auto_action", e.Alert.AutoAction,
			)
		},
		OnAutoActionScheduled: func(ctx context.Context, e *domain.AutoActionEvent) {
			logger.InfoContext(ctx, "auto_action_scheduled", "session_id", e.SessionID, "action", e.Action, "after", e.After)
		},
		OnAutoActionFired: func(ctx context.Context, e *domain.AutoActionEvent) {
			logger.InfoContext(ctx, "auto_action_fired", "session_id", e.SessionID, "action", e.Action)
		},
		OnAutoActionCancelled: func(ctx context.Context, e *domain.AutoActionEvent) {
			logger.InfoContext(ctx, "auto_action_cancelled", "session_id", e.SessionID, "action", e.Action)
		},
	}
}
