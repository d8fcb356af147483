package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// Guardian agent names.
const (
	AgentLiquidationWatchdog = "liquidation-watchdog"
	AgentMEVDefense          = "mev-defense"
	AgentOracleAction        = "oracle-action"
	AgentYieldSwitch         = "yield-switch"
)

// Agent thresholds. Readings must be strictly beyond a threshold to trip it.
const (
	MEVGasAbove       = 100.0
	YieldSwitchMargin = 1.5
)

// Verdict is the decision of a guardian agent.
type Verdict struct {
	Agent     string `json:"agent"`
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// LiquidationWatchdog flags a position whose LTV exceeds maxLTV.
func LiquidationWatchdog(ltv, maxLTV float64) Verdict {
	if ltv > maxLTV {
		return Verdict{AgentLiquidationWatchdog, true,
			fmt.Sprintf("🚨 Liquidation Risk! LTV = %s%% (limit: %s%%)", num(ltv), num(maxLTV))}
	}
	return Verdict{AgentLiquidationWatchdog, false, fmt.Sprintf("🟢 Safe Position: LTV = %s%%", num(ltv))}
}

// MEVDefense advises holding a transaction when gas is high and the mempool looks hostile.
func MEVDefense(gas float64, mempoolAlert bool) Verdict {
	if gas > MEVGasAbove && mempoolAlert {
		return Verdict{AgentMEVDefense, true, "⚠️ High MEV Risk Detected – Delay or Reroute TX"}
	}
	return Verdict{AgentMEVDefense, false, "✅ Safe to Proceed – Low MEV Activity"}
}

// OracleAction triggers action when the oracle price drops below threshold.
func OracleAction(price, threshold float64, action string) Verdict {
	if price < threshold {
		return Verdict{AgentOracleAction, true, fmt.Sprintf("Trigger action: %s because price = %s", action, num(price))}
	}
	return Verdict{AgentOracleAction, false, fmt.Sprintf("No action needed. Price = %s", num(price))}
}

// YieldSwitch recommends moving to pool when it beats the current APR by more than the margin.
func YieldSwitch(currentAPR, bestAPR float64, pool string) Verdict {
	if bestAPR > currentAPR+YieldSwitchMargin {
		return Verdict{AgentYieldSwitch, true,
			fmt.Sprintf("🔁 Switch to %s with APR %s%% (current: %s%%)", pool, num(bestAPR), num(currentAPR))}
	}
	return Verdict{AgentYieldSwitch, false, fmt.Sprintf("👍 Current vault still optimal. APR = %s%%", num(currentAPR))}
}

// num prints the shortest decimal that round-trips, so 90 reads "90" and 87.3 reads "87.3".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AgentRequest carries the inputs of any guardian agent.
// Each agent reads only its own fields; the numeric ones it reads are required.
type AgentRequest struct {
	LTV          *float64 `json:"ltv,omitempty"`
	MaxLTV       *float64 `json:"maxLTV,omitempty"`
	Gas          *float64 `json:"gas,omitempty"`
	MempoolAlert bool     `json:"mempoolAlert,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	Action       string   `json:"action,omitempty"`
	CurrentAPR   *float64 `json:"currentAPR,omitempty"`
	BestAPR      *float64 `json:"bestAPR,omitempty"`
	Pool         string   `json:"pool,omitempty"`
}

type agentFunc func(AgentRequest) (Verdict, error)

var agents = map[string]agentFunc{
	AgentLiquidationWatchdog: func(r AgentRequest) (Verdict, error) {
		ltv, limit, err := pair("ltv", r.LTV, "maxLTV", r.MaxLTV)
		if err != nil {
			return Verdict{}, err
		}
		return LiquidationWatchdog(ltv, limit), nil
	},
	AgentMEVDefense: func(r AgentRequest) (Verdict, error) {
		gas, err := required("gas", r.Gas)
		if err != nil {
			return Verdict{}, err
		}
		return MEVDefense(gas, r.MempoolAlert), nil
	},
	AgentOracleAction: func(r AgentRequest) (Verdict, error) {
		price, threshold, err := pair("price", r.Price, "threshold", r.Threshold)
		if err != nil {
			return Verdict{}, err
		}
		if r.Action == "" {
			return Verdict{}, fmt.Errorf("%w: action is required", domain.ErrInvalidRequest)
		}
		return OracleAction(price, threshold, r.Action), nil
	},
	AgentYieldSwitch: func(r AgentRequest) (Verdict, error) {
		current, best, err := pair("currentAPR", r.CurrentAPR, "bestAPR", r.BestAPR)
		if err != nil {
			return Verdict{}, err
		}
		if r.Pool == "" {
			return Verdict{}, fmt.Errorf("%w: pool is required", domain.ErrInvalidRequest)
		}
		return YieldSwitch(current, best, r.Pool), nil
	},
}

// Agents returns the guardian agent names in sorted order.
func Agents() []string {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvaluateAgent runs the named guardian agent on req.
// Unknown agents and missing or non-finite inputs fail with domain.ErrInvalidRequest.
func EvaluateAgent(agent string, req AgentRequest) (Verdict, error) {
	fn, ok := agents[agent]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: unknown agent %q", domain.ErrInvalidRequest, agent)
	}
	return fn(req)
}

func required(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", domain.ErrInvalidRequest, name)
	}
	return *v, nil
}

func pair(an string, a *float64, bn string, b *float64) (float64, float64, error) {
	x, err := required(an, a)
	if err != nil {
		return 0, 0, err
	}
	y, err := required(bn, b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
