package observability

import (
	"context"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "vaultguard"

// Auto-action outcomes.
const (
	OutcomeScheduled = "scheduled"
	OutcomeFired     = "fired"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the engine collectors.
type Metrics struct {
	ActionsResolved   *prometheus.CounterVec
	IntentsClassified *prometheus.CounterVec
	AlertsRaised      *prometheus.CounterVec
	AutoActions       *prometheus.CounterVec
	ActionDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "actions_resolved_total",
				Help:      "Total number of resolved actions",
			},
			[]string{"action", "severity"},
		),
		IntentsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "intents_classified_total",
				Help:      "Total number of classified chat messages",
			},
			[]string{"intent"},
		),
		AlertsRaised: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "alerts_raised_total",
				Help:      "Total number of proactive alerts",
			},
			[]string{"urgency"},
		),
		AutoActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "auto_actions_total",
				Help:      "Auto-action countdowns by outcome",
			},
			[]string{"outcome"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of action resolution, simulated latency included",
				Buckets:   []float64{0.1, 0.5, 1, 1.5, 2, 2.5, 3, 5},
			},
			[]string{"action"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ActionsResolved, m.IntentsClassified, m.AlertsRaised, m.AutoActions, m.ActionDuration)
	}
	return m
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionResolved: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionsResolved.WithLabelValues(e.Action, string(e.Result.Severity)).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
		OnIntentClassified: func(_ context.Context, e *domain.IntentEvent) {
			m.IntentsClassified.WithLabelValues(e.Intent).Inc()
		},
		OnAlertRaised: func(_ context.Context, e *domain.AlertEvent) {
			m.AlertsRaised.WithLabelValues(string(e.Alert.Urgency)).Inc()
		},
		OnAutoActionScheduled: func(context.Context, *domain.AutoActionEvent) {
			m.AutoActions.WithLabelValues(OutcomeScheduled).Inc()
		},
		OnAutoActionFired: func(context.Context, *domain.AutoActionEvent) {
			m.AutoActions.WithLabelValues(OutcomeFired).Inc()
		},
		OnAutoActionCancelled: func(context.Context, *domain.AutoActionEvent) {
			m.AutoActions.WithLabelValues(OutcomeCancelled).Inc()
		},
	}
}
