package domain

import (
	"fmt"
	"math"
)

// Action vocabulary. These are the only names that carry simulated metric effects.
const (
	ActionConnectWallet   = "Connect Wallet"
	ActionScanVault       = "Scan Vault"
	ActionAntiLiquidation = "Activate Anti-Liquidation"
	ActionOptimizeYield   = "Optimize Yield"
	ActionSimulateAttack  = "Simulate Attack"
)

// Actions returns the action vocabulary in dashboard order.
func Actions() []string {
	return []string{
		ActionConnectWallet,
		ActionScanVault,
		ActionAntiLiquidation,
		ActionOptimizeYield,
		ActionSimulateAttack,
	}
}

// IsKnownAction reports whether name is part of the action vocabulary.
// Matching is exact and case-sensitive.
func IsKnownAction(name string) bool {
	switch name {
	case ActionConnectWallet, ActionScanVault, ActionAntiLiquidation, ActionOptimizeYield, ActionSimulateAttack:
		return true
	}
	return false
}

// Severity describes the tone of a simulated outcome.
// An "error" severity is a business outcome, never a Go error.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Valid reports whether s is one of the four enumerated severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityWarning, SeverityInfo, SeverityError:
		return true
	}
	return false
}

// MetricDeltas are incremental changes to apply to session metrics.
// Nil fields are absent (not zero) and survive JSON round trips as such.
type MetricDeltas struct {
	LTVChange          *float64 `json:"ltvChange,omitempty"`
	YieldChange        *float64 `json:"yieldChange,omitempty"`
	RiskScoreChange    *float64 `json:"riskScoreChange,omitempty"`
	MEVBlockedIncrease *float64 `json:"mevBlockedIncrease,omitempty"`
	AlertsChange       *float64 `json:"alertsChange,omitempty"`
}

// Float returns a pointer to v, for building MetricDeltas literals.
func Float(v float64) *float64 {
	return &v
}

// Finite reports whether every present delta is a finite number.
func (d MetricDeltas) Finite() bool {
	for _, v := range d.values() {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no delta is present.
func (d MetricDeltas) IsEmpty() bool {
	for _, v := range d.values() {
		if v != nil {
			return false
		}
	}
	return true
}

func (d MetricDeltas) values() []*float64 {
	return []*float64{d.LTVChange, d.YieldChange, d.RiskScoreChange, d.MEVBlockedIncrease, d.AlertsChange}
}

// ActionResult is the public contract returned by the action resolver.
type ActionResult struct {
	Message         string         `json:"message"`
	Severity        Severity       `json:"severity"`
	Reasoning       string         `json:"reasoning"`
	MetricDeltas    *MetricDeltas  `json:"metricDeltas,omitempty"`
	ServiceTagsUsed []string       `json:"serviceTagsUsed"`
	FollowUpAction  *string        `json:"followUpAction"`
	ExtraContext    map[string]any `json:"extraContext,omitempty"`
}

// FollowUp returns the follow-up action name, or "" when there is none.
func (r ActionResult) FollowUp() string {
	if r.FollowUpAction == nil {
		return ""
	}
	return *r.FollowUpAction
}

// Urgent reports whether the result asks the host to auto-trigger its follow-up.
func (r ActionResult) Urgent() bool {
	urgent, _ := r.ExtraContext["urgentAction"].(bool)
	return urgent && r.FollowUpAction != nil
}

// Validate checks the result invariants.
func (r ActionResult) Validate() error {
	if !r.Severity.Valid() {
		return fmt.Errorf("%w: severity %q", ErrInvalidResult, r.Severity)
	}
	if r.MetricDeltas != nil && !r.MetricDeltas.Finite() {
		return fmt.Errorf("%w: non-finite metric delta", ErrInvalidResult)
	}
	if r.FollowUpAction != nil && !IsKnownAction(*r.FollowUpAction) {
		return fmt.Errorf("%w: unknown follow-up action %q", ErrInvalidResult, *r.FollowUpAction)
	}
	return nil
}

// ChatTurn is the reply produced by the intent classifier.
type ChatTurn struct {
	ResponseText    string  `json:"responseText"`
	ActionToTrigger *string `json:"actionToTrigger"`
}

// Trigger returns the action to trigger, or "" when there is none.
func (t ChatTurn) Trigger() string {
	if t.ActionToTrigger == nil {
		return ""
	}
	return *t.ActionToTrigger
}

// Urgency grades a proactive alert.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyModerate Urgency = "moderate"
)

// Alert is an unsolicited warning produced by the proactive monitor.
type Alert struct {
	Message              string   `json:"message"`
	Severity             Severity `json:"severity"`
	Reasoning            string   `json:"reasoning"`
	AutoAction           string   `json:"autoAction"`
	Urgency              Urgency  `json:"urgency"`
	ServiceTagsTriggered []string `json:"serviceTagsTriggered,omitempty"`
}

// AgentStatus is the conversational status of the guardian agent.
type AgentStatus string

const (
	AgentActive   AgentStatus = "ACTIVE"
	AgentScanning AgentStatus = "SCANNING"
	AgentIdle     AgentStatus = "IDLE"
)

// Valid reports whether s is a known agent status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentActive, AgentScanning, AgentIdle:
		return true
	}
	return false
}
