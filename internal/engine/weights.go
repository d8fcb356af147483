package engine

// Weights holds the branch probabilities of the action resolver.
// Chances are compared strictly: a draw r selects the branch when r < chance.
type Weights struct {
	// ScanCriticalChance applies only in demo mode.
	ScanCriticalChance float64 `mapstructure:"scan_critical_chance" yaml:"scan_critical_chance"`
	// ScanModerateChance is drawn once the critical branch was not taken.
	ScanModerateChance float64 `mapstructure:"scan_moderate_chance" yaml:"scan_moderate_chance"`
	// AttackVulnerableChance applies only in demo mode.
	AttackVulnerableChance float64 `mapstructure:"attack_vulnerable_chance" yaml:"attack_vulnerable_chance"`
	// Yield boost in APY points is YieldBoostMin + r*YieldBoostSpread.
	YieldBoostMin    float64 `mapstructure:"yield_boost_min" yaml:"yield_boost_min"`
	YieldBoostSpread float64 `mapstructure:"yield_boost_spread" yaml:"yield_boost_spread"`
}

// Default branch weights.
const (
	ScanCriticalChance     = 0.4
	ScanModerateChance     = 0.3
	AttackVulnerableChance = 0.3
	YieldBoostMin          = 15.0
	YieldBoostSpread       = 10.0
)

// DefaultWeights returns the stock weights.
func DefaultWeights() Weights {
	return Weights{
		ScanCriticalChance:     ScanCriticalChance,
		ScanModerateChance:     ScanModerateChance,
		AttackVulnerableChance: AttackVulnerableChance,
		YieldBoostMin:          YieldBoostMin,
		YieldBoostSpread:       YieldBoostSpread,
	}
}
