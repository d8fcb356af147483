package domain

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Valid(t *testing.T) {
	for _, s := range []Severity{SeveritySuccess, SeverityWarning, SeverityInfo, SeverityError} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Severity("fatal").Valid())
	assert.False(t, Severity("").Valid())
}

func TestIsKnownAction_CaseSensitive(t *testing.T) {
	for _, name := range Actions() {
		assert.True(t, IsKnownAction(name), name)
	}
	assert.False(t, IsKnownAction("scan vault"))
	assert.False(t, IsKnownAction("Configure OracleBot"))
}

func TestActionResult_Validate(t *testing.T) {
	next := ActionOptimizeYield
	bogus := "Test Security"

	ok := ActionResult{Message: "m", Severity: SeveritySuccess, FollowUpAction: &next}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Severity = "loud"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidResult)

	bad = ok
	bad.MetricDeltas = &MetricDeltas{LTVChange: Float(math.Inf(1))}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidResult)

	bad = ok
	bad.FollowUpAction = &bogus
	assert.ErrorIs(t, bad.Validate(), ErrInvalidResult)
}

func TestActionResult_JSONRoundTrip(t *testing.T) {
	next := ActionAntiLiquidation
	original := ActionResult{
		Message:   "CRITICAL ALERT",
		Severity:  SeverityError,
		Reasoning: "price drop",
		MetricDeltas: &MetricDeltas{
			LTVChange:       Float(25),
			RiskScoreChange: Float(75),
			AlertsChange:    Float(0),
			YieldChange:     Float(17.123456789012345),
		},
		ServiceTagsUsed: []string{"Data Feeds", "Data Streams", "Functions"},
		FollowUpAction:  &next,
		ExtraContext: map[string]any{
			"riskScore":    95.0,
			"ltvRatio":     87.3,
			"urgentAction": true,
			"nested":       map[string]any{"pairs": []any{"ETH/USD"}},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ActionResult
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
	require.NotNil(t, decoded.MetricDeltas.AlertsChange, "zero deltas must not be dropped")
	assert.Nil(t, decoded.MetricDeltas.MEVBlockedIncrease, "absent deltas must stay absent")
}

func TestActionResult_NullFollowUp(t *testing.T) {
	data, err := json.Marshal(ActionResult{Message: "x", Severity: SeverityInfo})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"followUpAction":null`)
	assert.NotContains(t, string(data), "metricDeltas")
}

func TestActionResult_Urgent(t *testing.T) {
	next := ActionAntiLiquidation
	r := ActionResult{FollowUpAction: &next, ExtraContext: map[string]any{"urgentAction": true}}
	assert.True(t, r.Urgent())

	r.FollowUpAction = nil
	assert.False(t, r.Urgent())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnAlertRaised: func(_ context.Context, _ *AlertEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{OnAlertRaised: func(_ context.Context, _ *AlertEvent) { calls = append(calls, "b") }}

	merged := a.Merge(b)
	merged.OnAlertRaised(context.Background(), &AlertEvent{})

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnActionResolved)
}
