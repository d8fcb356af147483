package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnActionResolved(ctx, &domain.ActionEvent{
		Action:   domain.ActionScanVault,
		Result:   domain.ActionResult{Severity: domain.SeverityError},
		Duration: 2 * time.Second,
	})
	hooks.OnActionResolved(ctx, &domain.ActionEvent{
		Action: domain.ActionScanVault,
		Result: domain.ActionResult{Severity: domain.SeverityError},
	})
	hooks.OnIntentClassified(ctx, &domain.IntentEvent{Intent: "scan"})
	hooks.OnAlertRaised(ctx, &domain.AlertEvent{Alert: domain.Alert{Urgency: domain.UrgencyCritical}})
	hooks.OnAutoActionScheduled(ctx, &domain.AutoActionEvent{})
	hooks.OnAutoActionFired(ctx, &domain.AutoActionEvent{})
	hooks.OnAutoActionCancelled(ctx, &domain.AutoActionEvent{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionsResolved.WithLabelValues(domain.ActionScanVault, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentsClassified.WithLabelValues("scan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsRaised.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutoActions.WithLabelValues(observability.OutcomeFired)))

	count, err := testutil.GatherAndCount(reg, "vaultguard_action_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP vaultguard_auto_actions_total Auto-action countdowns by outcome
# TYPE vaultguard_auto_actions_total counter
vaultguard_auto_actions_total{outcome="cancelled"} 1
vaultguard_auto_actions_total{outcome="fired"} 1
vaultguard_auto_actions_total{outcome="scheduled"} 1
`), "vaultguard_auto_actions_total")
	assert.NoError(t, err)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() { observability.NewMetrics(nil) })
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	hooks := observability.LogHooks(logger).Merge(observability.NewMetrics(nil).Hooks())

	next := domain.ActionOptimizeYield
	hooks.OnActionResolved(context.Background(), &domain.ActionEvent{
		EventBase: domain.EventBase{SessionID: "s1"},
		Action:    domain.ActionScanVault,
		Origin:    domain.OriginAuto,
		Result:    domain.ActionResult{Severity: domain.SeverityWarning, FollowUpAction: &next},
	})

	out := buf.String()
	assert.Contains(t, out, `"msg":"action_resolved"`)
	assert.Contains(t, out, `"session_id":"s1"`)
	assert.Contains(t, out, `"follow_up":"Optimize Yield"`)
	assert.Contains(t, out, `"origin":"auto"`)
}
