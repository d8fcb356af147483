package engine

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func actionGen() gopter.Gen {
	return gen.OneConstOf(
		domain.ActionConnectWallet,
		domain.ActionScanVault,
		domain.ActionAntiLiquidation,
		domain.ActionOptimizeYield,
		domain.ActionSimulateAttack,
		"Configure OracleBot",
	)
}

// TestResolveResultInvariants verifies that every resolved result, for any
// action, draw and demo flag, carries a valid severity, finite deltas and a
// follow-up from the vocabulary.
func TestResolveResultInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("results satisfy the contract", prop.ForAll(
		func(action string, r1, r2 float64, demo bool) bool {
			r := NewResolver(WithWaiter(ports.NoWait), WithRandom(ports.Sequence(0, r1, r2)))
			res, err := r.Resolve(context.Background(), action, demo)
			if err != nil || res.Validate() != nil {
				return false
			}
			if domain.IsKnownAction(action) {
				return len(res.ServiceTagsUsed) > 0
			}
			return res.Severity == domain.SeverityInfo && res.FollowUpAction == nil
		},
		actionGen(),
		gen.Float64Range(0, 0.999999),
		gen.Float64Range(0, 0.999999),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestDemoOffNeverCritical verifies that outside demo mode a scan never
// reports the critical branch and an attack is always defended.
func TestDemoOffNeverCritical(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("no error severity without demo", prop.ForAll(
		func(r1, r2 float64) bool {
			r := NewResolver(WithWaiter(ports.NoWait), WithRandom(ports.Sequence(0, r1, r2)))
			scan, _ := r.Resolve(context.Background(), domain.ActionScanVault, false)
			attack, _ := r.Resolve(context.Background(), domain.ActionSimulateAttack, false)
			return scan.Severity != domain.SeverityError && attack.Severity == domain.SeveritySuccess
		},
		gen.Float64Range(0, 0.999999),
		gen.Float64Range(0, 0.999999),
	))

	properties.TestingRun(t)
}

// TestMetricsStayBounded verifies that any sequence of resolved actions
// applied to a session keeps percentages within [0, 100].
func TestMetricsStayBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("risk and ltv stay in range", prop.ForAll(
		func(actions []string, draw float64) bool {
			r := NewResolver(WithWaiter(ports.NoWait), WithRandom(ports.Sequence(draw)))
			now := time.Now()
			s := domain.NewSession("prop", now)
			for _, a := range actions {
				res, err := r.Resolve(context.Background(), a, true)
				if err != nil {
					return false
				}
				s.ApplyResult(a, res, domain.OriginUser, now)
				m := s.Metrics
				if m.RiskScore < 0 || m.RiskScore > 100 || m.LTV < 0 || m.LTV > 100 ||
					m.VaultHealth < 0 || m.VaultHealth > 100 || m.ActiveAlerts < 0 || m.YieldAccrued < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(actionGen()),
		gen.Float64Range(0, 0.999999),
	))

	properties.TestingRun(t)
}

// TestEvaluateMatchesThresholds verifies the monitor against the threshold
// predicates for arbitrary readings.
func TestEvaluateMatchesThresholds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("urgency follows strict thresholds", prop.ForAll(
		func(risk, ltv float64) bool {
			alert, ok := Evaluate(risk, ltv)
			critical := risk > CriticalRiskAbove || ltv > CriticalLTVAbove
			moderate := !critical && (risk > ModerateRiskAbove || ltv > ModerateLTVAbove)
			switch {
			case critical:
				return ok && alert.Urgency == domain.UrgencyCritical && alert.AutoAction == domain.ActionAntiLiquidation
			case moderate:
				return ok && alert.Urgency == domain.UrgencyModerate && alert.AutoAction == domain.ActionOptimizeYield
			default:
				return !ok
			}
		},
		gen.Float64Range(-10, 110),
		gen.Float64Range(-10, 110),
	))

	properties.TestingRun(t)
}

// TestClassifyNeverFailsWithoutCancellation verifies the classifier replies to any text.
func TestClassifyNeverFailsWithoutCancellation(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("any message gets a reply", prop.ForAll(
		func(msg string, r float64) bool {
			c := NewClassifier(WithWaiter(ports.NoWait), WithRandom(ports.Sequence(0, r)))
			turn, intent, err := c.Classify(context.Background(), ChatRequest{UserMessage: msg})
			if err != nil || turn.ResponseText == "" {
				return false
			}
			if turn.ActionToTrigger != nil && !domain.IsKnownAction(*turn.ActionToTrigger) {
				return false
			}
			return intent != ""
		},
		gen.AnyString(),
		gen.Float64Range(0, 0.999999),
	))

	properties.TestingRun(t)
}
