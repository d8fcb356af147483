package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ApplyClamps(t *testing.T) {
	m := SeedMetrics()
	m.RiskScore = 90
	m.LTV = 95

	m = m.Apply(&MetricDeltas{
		RiskScoreChange:    Float(75),
		LTVChange:          Float(25),
		AlertsChange:       Float(-3),
		MEVBlockedIncrease: Float(5),
		YieldChange:        Float(-10),
	})

	assert.Equal(t, 100.0, m.RiskScore)
	assert.Equal(t, 100.0, m.LTV)
	assert.Equal(t, 0.0, m.ActiveAlerts)
	assert.Equal(t, 5.0, m.MEVBlocked)
	assert.Equal(t, 0.0, m.YieldAccrued)
	assert.Equal(t, 0.0, m.VaultHealth)
	assert.Equal(t, RiskHigh, m.RiskLevel())

	m = m.Apply(&MetricDeltas{RiskScoreChange: Float(-150), MEVBlockedIncrease: Float(-2)})
	assert.Equal(t, 0.0, m.RiskScore)
	assert.Equal(t, 100.0, m.VaultHealth)
	assert.Equal(t, 5.0, m.MEVBlocked, "MEV counter never decreases")
}

func TestMetrics_ApplyNil(t *testing.T) {
	m := SeedMetrics()
	assert.Equal(t, m, m.Apply(nil))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, RiskLow, LevelFor(0))
	assert.Equal(t, RiskLow, LevelFor(30))
	assert.Equal(t, RiskMedium, LevelFor(30.5))
	assert.Equal(t, RiskMedium, LevelFor(60))
	assert.Equal(t, RiskHigh, LevelFor(61))
}

func TestSession_ApplyConnect(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)

	s.ApplyResult(ActionConnectWallet, ActionResult{
		Message:         "Wallet connected",
		Severity:        SeveritySuccess,
		ServiceTagsUsed: []string{"Proof of Reserves", "Data Feeds"},
		FollowUpAction:  ptrTo(ActionScanVault),
		MetricDeltas:    &MetricDeltas{RiskScoreChange: Float(0)},
		ExtraContext:    map[string]any{"vaultsDetected": 3, "totalValue": 2900000},
	}, OriginUser, now)

	assert.True(t, s.Connected)
	assert.Equal(t, 3, s.VaultsDetected)
	assert.Equal(t, 2900000.0, s.Metrics.TotalValue)
	assert.Equal(t, ProtectionBasic, s.Metrics.ProtectionLevel)
	assert.Equal(t, ActionScanVault, s.RecommendedAction)
	assert.Equal(t, []string{"Proof of Reserves", "Data Feeds"}, s.ServicesUsed)

	summary := s.AuditSummary()
	assert.Contains(t, summary, "USER INITIATED: Connect Wallet")
	assert.Contains(t, summary, "Data services used: Proof of Reserves, Data Feeds")
	assert.Contains(t, summary, "Connect Wallet: Wallet connected")
}

func TestSession_ApplyOverridesFromExtraContext(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)
	s.Metrics.RiskScore = 40

	s.ApplyResult(ActionScanVault, ActionResult{
		Severity:     SeverityError,
		MetricDeltas: &MetricDeltas{RiskScoreChange: Float(75), LTVChange: Float(25)},
		ExtraContext: map[string]any{"riskScore": json.Number("95"), "ltvRatio": 87.3},
	}, OriginAuto, now)

	assert.Equal(t, 95.0, s.Metrics.RiskScore)
	assert.Equal(t, 87.3, s.Metrics.LTV)
	assert.Equal(t, 5.0, s.Metrics.VaultHealth)
	assert.Contains(t, s.AuditSummary(), "AUTO-TRIGGERED: Scan Vault")
}

func TestSession_ClearsFulfilledRecommendation(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)
	s.RecommendedAction = ActionSimulateAttack

	s.ApplyResult(ActionSimulateAttack, ActionResult{Severity: SeveritySuccess}, OriginUser, now)
	assert.Empty(t, s.RecommendedAction)
}

func TestSession_SnapshotIsolation(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", now)
	s.Log(now, OriginUser, "first")

	snap := s.Snapshot()
	snap.Log(now, OriginUser, "second")
	snap.Metrics.RiskScore = 50

	assert.Len(t, s.Audit, 1)
	assert.Equal(t, 0.0, s.Metrics.RiskScore)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	s := NewSession("s1", now)
	s.Status = AgentActive
	s.Step = 2
	s.RecommendedAction = ActionOptimizeYield
	s.Log(now, OriginUser, "hello")

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *s, decoded)
}

func ptrTo(s string) *string { return &s }
