package domain

// RiskLevel is the discrete band derived from a numeric risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Risk band thresholds. Scores strictly above a threshold fall in the higher band.
const (
	RiskMediumAbove = 30
	RiskHighAbove   = 60
)

// LevelFor derives the risk band of score.
func LevelFor(score float64) RiskLevel {
	switch {
	case score > RiskHighAbove:
		return RiskHigh
	case score > RiskMediumAbove:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Protection levels reported by the dashboard.
const (
	ProtectionNone    = "None"
	ProtectionBasic   = "Basic"
	ProtectionMaximum = "Maximum"
)

// Metrics holds the session-scoped vault metrics.
// Percentages are plain numbers in [0, 100]; TotalValue is in USD.
type Metrics struct {
	VaultHealth     float64 `json:"vaultHealth"`
	RiskScore       float64 `json:"riskScore"`
	LTV             float64 `json:"ltv"`
	YieldAccrued    float64 `json:"yieldAccrued"`
	MEVBlocked      float64 `json:"mevBlocked"`
	ActiveAlerts    float64 `json:"activeAlerts"`
	TotalValue      float64 `json:"totalValue"`
	ProtectionLevel string  `json:"protectionLevel"`
}

// SeedMetrics returns the metrics of a freshly created session.
func SeedMetrics() Metrics {
	return Metrics{
		VaultHealth:     100,
		ProtectionLevel: ProtectionNone,
	}
}

// RiskLevel derives the band of the current risk score.
func (m Metrics) RiskLevel() RiskLevel {
	return LevelFor(m.RiskScore)
}

// Apply composes deltas onto m and returns the result.
// RiskScore, LTV and VaultHealth are clamped to [0, 100], YieldAccrued and
// ActiveAlerts are floored at zero and MEVBlocked never decreases.
func (m Metrics) Apply(d *MetricDeltas) Metrics {
	if d == nil {
		return m
	}
	if d.RiskScoreChange != nil {
		m.RiskScore = clamp(m.RiskScore+*d.RiskScoreChange, 0, 100)
	}
	if d.LTVChange != nil {
		m.LTV = clamp(m.LTV+*d.LTVChange, 0, 100)
	}
	if d.YieldChange != nil {
		m.YieldAccrued = max(0, m.YieldAccrued+*d.YieldChange)
	}
	if d.MEVBlockedIncrease != nil {
		m.MEVBlocked += max(0, *d.MEVBlockedIncrease)
	}
	if d.AlertsChange != nil {
		m.ActiveAlerts = max(0, m.ActiveAlerts+*d.AlertsChange)
	}
	m.recomputeHealth()
	return m
}

func (m *Metrics) recomputeHealth() {
	m.VaultHealth = clamp(100-m.RiskScore, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
