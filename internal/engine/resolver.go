package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// ActionRequest is the boundary form of a resolve call.
type ActionRequest struct {
	Action   string `json:"action"`
	DemoMode bool   `json:"demoMode,omitempty"`
}

// draw is a single uniform [0,1) value taken from the resolver's source.
type draw func() float64

// actionHandler produces the outcome of one recognized action.
type actionHandler func(r *Resolver, next draw, demo bool, now time.Time) domain.ActionResult

// Resolver turns an action name into a simulated ActionResult.
// It holds no session state and is safe for concurrent use as long as its
// RandomSource is.
type Resolver struct {
	opts     options
	handlers map[string]actionHandler
}

// NewResolver creates a resolver with the default 1.5s + up to 1s latency.
func NewResolver(opts ...Option) *Resolver {
	return &Resolver{
		opts: newOptions(ResolveDelay, opts),
		handlers: map[string]actionHandler{
			domain.ActionConnectWallet:   (*Resolver).connectWallet,
			domain.ActionScanVault:       (*Resolver).scanVault,
			domain.ActionAntiLiquidation: (*Resolver).antiLiquidation,
			domain.ActionOptimizeYield:   (*Resolver).optimizeYield,
			domain.ActionSimulateAttack:  (*Resolver).simulateAttack,
		},
	}
}

// Weights returns the branch weights in use.
func (r *Resolver) Weights() Weights {
	return r.opts.weights
}

// Resolve waits the simulated latency and then produces the outcome of action.
// Unrecognized names yield the generic info result. The only error is the
// context error when the wait is interrupted.
func (r *Resolver) Resolve(ctx context.Context, action string, demo bool) (domain.ActionResult, error) {
	if err := r.opts.pause(ctx); err != nil {
		return domain.ActionResult{}, err
	}

	now := r.opts.clock()
	handler, ok := r.handlers[action]
	if !ok {
		r.opts.logger.Debug("Unrecognized action, using generic result", "action", action)
		return genericResult(action), nil
	}

	result := handler(r, r.opts.random.Float64, demo, now)
	r.opts.logger.Debug("Action resolved",
		"action", action,
		"severity", result.Severity,
		"follow_up", result.FollowUp(),
		"demo", demo,
	)
	return result, nil
}

// Decide validates a boundary request before resolving it.
func (r *Resolver) Decide(ctx context.Context, req ActionRequest) (domain.ActionResult, error) {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return domain.ActionResult{}, fmt.Errorf("%w: action is required", domain.ErrInvalidRequest)
	}
	return r.Resolve(ctx, action, req.DemoMode)
}

func genericResult(action string) domain.ActionResult {
	return domain.ActionResult{
		Message:         `Action "` + action + `" processed.`,
		Severity:        domain.SeverityInfo,
		Reasoning:       "Generic simulation response.",
		ServiceTagsUsed: []string{},
		ExtraContext:    map[string]any{"action": action},
	}
}

func next(action string) *string {
	return &action
}

func (r *Resolver) connectWallet(roll draw, _ bool, now time.Time) domain.ActionResult {
	total := 2847392 + math.Floor(roll()*500000)
	return domain.ActionResult{
		Message:         "🔗 Wallet connected! Chainlink Proof of Reserve verified $2.8M across 3 vaults.",
		Severity:        domain.SeveritySuccess,
		Reasoning:       "Chainlink PoR confirmed collateral integrity. Data Feeds monitoring 15 price pairs.",
		MetricDeltas:    &domain.MetricDeltas{RiskScoreChange: domain.Float(0)},
		ServiceTagsUsed: []string{TagProofOfReserves, TagDataFeeds},
		FollowUpAction:  next(domain.ActionScanVault),
		ExtraContext: map[string]any{
			"vaultsDetected": float64(domain.DefaultVaultsDetected),
			"totalValue":     total,
			"dataServices":   services(now, nil),
		},
	}
}

func (r *Resolver) scanVault(roll draw, demo bool, now time.Time) domain.ActionResult {
	tags := []string{TagDataFeeds, TagDataStreams, TagFunctions}
	w := r.opts.weights

	// Both draws are taken in order so a forced sequence selects a branch exactly.
	if roll() < w.ScanCriticalChance && demo {
		return domain.ActionResult{
			Message:  "🚨 CRITICAL ALERT! Vault #73 (Aave ETH) at 87% LTV - Liquidation imminent!",
			Severity: domain.SeverityError,
			Reasoning: "Data Feeds detected ETH price drop (-8.2%). Data Streams confirmed high volatility. " +
				"Functions calculated liquidation risk at 95%.",
			MetricDeltas: &domain.MetricDeltas{
				LTVChange:       domain.Float(25),
				RiskScoreChange: domain.Float(75),
				AlertsChange:    domain.Float(3),
			},
			ServiceTagsUsed: tags,
			FollowUpAction:  next(domain.ActionAntiLiquidation),
			ExtraContext: map[string]any{
				"riskScore":    95.0,
				"ltvRatio":     87.3,
				"urgentAction": true,
				"dataServices": scanServices(now, -8.2, -3.1, true, "Risk Analysis"),
			},
		}
	}

	if roll() < w.ScanModerateChance {
		return domain.ActionResult{
			Message:  "⚠️ MODERATE RISK: Vault #45 shows elevated LTV (72%). Monitoring recommended.",
			Severity: domain.SeverityWarning,
			Reasoning: "Data Feeds show stable prices. " +
				"Functions identified yield optimization opportunities across 12 protocols.",
			MetricDeltas: &domain.MetricDeltas{
				LTVChange:       domain.Float(10),
				RiskScoreChange: domain.Float(40),
				AlertsChange:    domain.Float(1),
			},
			ServiceTagsUsed: tags,
			FollowUpAction:  next(domain.ActionOptimizeYield),
			ExtraContext: map[string]any{
				"riskScore":    65.0,
				"ltvRatio":     72.1,
				"dataServices": scanServices(now, 1.2, 0.8, false, "Yield Analysis"),
			},
		}
	}

	return domain.ActionResult{
		Message:  "✅ ALL VAULTS HEALTHY! Average LTV: 45%. Excellent collateral management.",
		Severity: domain.SeveritySuccess,
		Reasoning: "Data Feeds confirm stable market conditions. " +
			"Functions analysis shows optimal positioning across all vaults.",
		MetricDeltas: &domain.MetricDeltas{
			LTVChange:       domain.Float(-5),
			RiskScoreChange: domain.Float(-10),
			AlertsChange:    domain.Float(-1),
		},
		ServiceTagsUsed: tags,
		FollowUpAction:  next(domain.ActionOptimizeYield),
		ExtraContext: map[string]any{
			"riskScore":    15.0,
			"ltvRatio":     45.2,
			"dataServices": scanServices(now, 2.1, 1.5, false, "Health Check"),
		},
	}
}

func scanServices(now time.Time, eth, btc float64, volatile bool, calculation string) map[string]any {
	return services(now, serviceState{
		"dataFeeds":   {"priceChanges": map[string]any{"ETH/USD": eth, "BTC/USD": btc}},
		"dataStreams": {"active": 3, "lowLatencyFeeds": 3, "volatilityDetected": volatile},
		"functions":   {"deployed": 2, "computationsToday": 47, "lastCalculation": calculation},
	})
}

func (r *Resolver) antiLiquidation(_ draw, _ bool, now time.Time) domain.ActionResult {
	return domain.ActionResult{
		Message:  "🛡️ PROTECTION ACTIVATED! Chainlink Automation deployed with 12 upkeep contracts.",
		Severity: domain.SeveritySuccess,
		Reasoning: "Automation Keepers now monitor LTV thresholds 24/7. Data Feeds trigger rebalancing at 75% LTV. " +
			"Functions calculate optimal collateral additions.",
		MetricDeltas: &domain.MetricDeltas{
			LTVChange:       domain.Float(-20),
			RiskScoreChange: domain.Float(-50),
			AlertsChange:    domain.Float(-3),
		},
		ServiceTagsUsed: []string{TagAutomation, TagDataFeeds, TagFunctions},
		FollowUpAction:  next(domain.ActionOptimizeYield),
		ExtraContext: map[string]any{
			"protectionLevel": domain.ProtectionMaximum,
			"dataServices": services(now, serviceState{
				"dataStreams": {"active": 3, "lowLatencyFeeds": 3},
				"automation": {
					"upkeepContracts": 12,
					"triggers":        []string{"LTV > 75%", "Price Drop > 10%", "Volatility Spike"},
					"nextCheck":       now.Add(5 * time.Minute).UnixMilli(),
				},
				"functions": {"deployed": 4, "computationsToday": 47, "lastCalculation": "Collateral Optimization"},
			}),
		},
	}
}

func (r *Resolver) optimizeYield(roll draw, _ bool, now time.Time) domain.ActionResult {
	w := r.opts.weights
	boost := w.YieldBoostMin + roll()*w.YieldBoostSpread
	return domain.ActionResult{
		Message:  fmt.Sprintf("💰 YIELD OPTIMIZED! %.1f%% APY increase via Chainlink Functions analysis.", boost),
		Severity: domain.SeveritySuccess,
		Reasoning: fmt.Sprintf("Functions analyzed 47 DeFi protocols via external APIs. "+
			"Data Feeds confirmed optimal entry prices. "+
			"Recommended strategy: Convex stETH (6.8%% → %.1f%% APY).", 6.8+boost),
		MetricDeltas: &domain.MetricDeltas{
			YieldChange:     domain.Float(boost),
			RiskScoreChange: domain.Float(-5),
		},
		ServiceTagsUsed: []string{TagFunctions, TagDataFeeds},
		FollowUpAction:  next(domain.ActionSimulateAttack),
		ExtraContext: map[string]any{
			"yieldIncrease": boost / 100,
			"dataServices": services(now, serviceState{
				"dataStreams": {"active": 3, "lowLatencyFeeds": 3},
				"functions": {
					"deployed":          6,
					"computationsToday": 94,
					"lastCalculation":   "Yield Strategy Optimization",
					"protocolsAnalyzed": 47,
					"apiCalls":          156,
				},
				"automation": {"upkeepContracts": 12},
			}),
		},
	}
}

func (r *Resolver) simulateAttack(roll draw, demo bool, now time.Time) domain.ActionResult {
	tags := []string{TagVRF, TagFunctions, TagDataStreams}

	if roll() < r.opts.weights.AttackVulnerableChance && demo {
		return domain.ActionResult{
			Message:  "⚠️ VULNERABILITY DETECTED! Flash loan vector identified during VRF stress test.",
			Severity: domain.SeverityWarning,
			Reasoning: "VRF generated 1,000 random attack scenarios. Functions computed defense strategies. " +
				"Data Streams detected potential MEV exploitation window of 12ms.",
			MetricDeltas: &domain.MetricDeltas{
				MEVBlockedIncrease: domain.Float(5),
				RiskScoreChange:    domain.Float(10),
			},
			ServiceTagsUsed: tags,
			FollowUpAction:  next(domain.ActionScanVault),
			ExtraContext: map[string]any{
				"attackBlockedStatus": "Partial Success",
				"dataServices":        attackServices(now, 1000, "12ms", 1247, 156, "Security Analysis"),
			},
		}
	}

	svc := attackServices(now, 2500, "0ms", 2847, 387, "Comprehensive Security Analysis")
	svc["functions"].(map[string]any)["successRate"] = 98.7
	return domain.ActionResult{
		Message:  "🔥 ATTACK SIMULATION SUCCESS! All vectors defended. Vault resilience: 98.7%",
		Severity: domain.SeveritySuccess,
		Reasoning: "VRF generated 2,500 random attack scenarios including flash loans, MEV, and reentrancy. " +
			"Functions computed defense success rate at 98.7%. Data Streams confirmed no exploitable windows.",
		MetricDeltas: &domain.MetricDeltas{
			MEVBlockedIncrease: domain.Float(15),
			RiskScoreChange:    domain.Float(-10),
		},
		ServiceTagsUsed: tags,
		ExtraContext: map[string]any{
			"attackBlockedStatus": "Complete Success",
			"dataServices":        svc,
		},
	}
}

func attackServices(now time.Time, scenarios int, window string, computations, strategies int, calculation string) map[string]any {
	return services(now, serviceState{
		"dataStreams": {"active": 5, "lowLatencyFeeds": 5, "mevDetectionActive": true, "exploitationWindow": window},
		"vrf": {
			"requests":                 scenarios,
			"randomnessGenerated":      scenarios,
			"attackScenariosGenerated": scenarios,
			"lastRequest":              now.UnixMilli(),
		},
		"functions": {
			"deployed":                  8,
			"computationsToday":         computations,
			"lastCalculation":           calculation,
			"defenseStrategiesComputed": strategies,
		},
		"automation": {"upkeepContracts": 12},
	})
}
