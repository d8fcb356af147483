package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEvaluate_Thresholds(t *testing.T) {
	tests := []struct {
		name    string
		risk    float64
		ltv     float64
		want    bool
		urgency domain.Urgency
		auto    string
	}{
		{"calm", 10, 40, false, "", ""},
		{"risk at moderate threshold", 60, 40, false, "", ""},
		{"ltv at moderate threshold", 10, 70, false, "", ""},
		{"moderate by risk", 61, 40, true, domain.UrgencyModerate, domain.ActionOptimizeYield},
		{"moderate by ltv", 10, 70.1, true, domain.UrgencyModerate, domain.ActionOptimizeYield},
		{"risk at critical threshold", 80, 40, true, domain.UrgencyModerate, domain.ActionOptimizeYield},
		{"ltv at critical threshold", 10, 85, true, domain.UrgencyModerate, domain.ActionOptimizeYield},
		{"critical by risk", 81, 40, true, domain.UrgencyCritical, domain.ActionAntiLiquidation},
		{"critical by ltv", 10, 86, true, domain.UrgencyCritical, domain.ActionAntiLiquidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, ok := Evaluate(tt.risk, tt.ltv)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.urgency, alert.Urgency)
			assert.Equal(t, tt.auto, alert.AutoAction)
		})
	}
}

func TestEvaluate_CriticalShape(t *testing.T) {
	alert, ok := Evaluate(95, 87.3)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityError, alert.Severity)
	assert.Equal(t, []string{TagDataFeeds, TagAutomation, TagFunctions}, alert.ServiceTagsTriggered)

	alert, ok = Evaluate(65, 0)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, alert.Severity)
	assert.Equal(t, []string{TagFunctions, TagDataFeeds}, alert.ServiceTagsTriggered)
}

func TestMonitor_CheckWaitsDelay(t *testing.T) {
	var waited time.Duration
	m := NewMonitor(
		WithRandom(ports.Sequence(1)),
		WithWaiter(ports.WaitFunc(func(_ context.Context, d time.Duration) error {
			waited = d
			return nil
		})),
	)

	alert, ok, err := m.Check(context.Background(), 90, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.UrgencyCritical, alert.Urgency)
	assert.Equal(t, 5*time.Second, waited)
}

func TestMonitor_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMonitor(WithWaiter(ports.NoWait), WithRandom(ports.Sequence(0)))
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	got := map[string]domain.Urgency{}
	probe := func(context.Context) ([]Reading, error) {
		return []Reading{
			{Key: "hot", RiskScore: 95, LTV: 87},
			{Key: "warm", RiskScore: 65, LTV: 50},
			{Key: "calm", RiskScore: 5, LTV: 20},
		}, nil
	}
	sink := func(_ context.Context, key string, alert domain.Alert) {
		mu.Lock()
		defer mu.Unlock()
		got[key] = alert.Urgency
		if len(got) == 2 {
			cancel()
		}
	}

	err := m.Run(ctx, time.Millisecond, probe, sink)
	assert.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]domain.Urgency{"hot": domain.UrgencyCritical, "warm": domain.UrgencyModerate}, got)
}
