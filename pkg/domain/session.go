package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Origin tells who initiated an audited event.
type Origin string

const (
	OriginUser   Origin = "user"
	OriginAuto   Origin = "auto"
	OriginSystem Origin = "system"
)

// Prefix returns the audit-log prefix for the origin.
func (o Origin) Prefix() string {
	switch o {
	case OriginAuto:
		return "AUTO-TRIGGERED"
	case OriginSystem:
		return "SYSTEM"
	default:
		return "USER INITIATED"
	}
}

// AuditEntry is a single line of the session audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Origin    Origin    `json:"origin"`
	Message   string    `json:"message"`
}

// DefaultVaultsDetected is used when a connect result omits the vault count.
const DefaultVaultsDetected = 3

// Session is the snapshot of one dashboard session.
// It is owned by the host and mutated only by applying engine results.
type Session struct {
	ID                string       `json:"id"`
	Status            AgentStatus  `json:"status"`
	Step              int          `json:"step"`
	Connected         bool         `json:"connected"`
	VaultsDetected    int          `json:"vaultsDetected"`
	Metrics           Metrics      `json:"metrics"`
	RecommendedAction string       `json:"recommendedAction,omitempty"`
	ServicesUsed      []string     `json:"servicesUsed,omitempty"`
	Audit             []AuditEntry `json:"audit"`
	PendingAutoAction string       `json:"pendingAutoAction,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// NewSession creates an unconnected session seeded with initial metrics.
func NewSession(id string, now time.Time) *Session {
	s := &Session{ID: id, CreatedAt: now}
	s.Reset(now)
	return s
}

// Reset restores the session to its initial state, keeping its identity.
func (s *Session) Reset(now time.Time) {
	s.Status = AgentIdle
	s.Step = 0
	s.Connected = false
	s.VaultsDetected = 0
	s.Metrics = SeedMetrics()
	s.RecommendedAction = ""
	s.ServicesUsed = nil
	s.Audit = []AuditEntry{}
	s.PendingAutoAction = ""
	s.UpdatedAt = now
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.ServicesUsed = append([]string(nil), s.ServicesUsed...)
	out.Audit = append([]AuditEntry{}, s.Audit...)
	return &out
}

// Log appends an audit entry.
func (s *Session) Log(now time.Time, origin Origin, format string, args ...any) {
	s.Audit = append(s.Audit, AuditEntry{
		Timestamp: now,
		Origin:    origin,
		Message:   fmt.Sprintf(format, args...),
	})
	s.UpdatedAt = now
}

// AuditSummary joins the audit messages, oldest first, one per line.
func (s *Session) AuditSummary() string {
	lines := make([]string, len(s.Audit))
	for i, e := range s.Audit {
		lines[i] = e.Message
	}
	return strings.Join(lines, "\n")
}

// ApplyResult mutates the session after action has been resolved into r.
func (s *Session) ApplyResult(action string, r ActionResult, origin Origin, now time.Time) {
	s.Log(now, origin, "%s: %s", origin.Prefix(), action)

	if len(r.ServiceTagsUsed) > 0 {
		s.ServicesUsed = append([]string(nil), r.ServiceTagsUsed...)
		s.Log(now, OriginSystem, "Data services used: %s", strings.Join(r.ServiceTagsUsed, ", "))
	}

	if action == ActionConnectWallet {
		s.Connected = true
		s.VaultsDetected = DefaultVaultsDetected
		if n, ok := Number(r.ExtraContext["vaultsDetected"]); ok && n > 0 {
			s.VaultsDetected = int(n)
		}
		if v, ok := Number(r.ExtraContext["totalValue"]); ok {
			s.Metrics.TotalValue = v
		}
		s.Metrics.ProtectionLevel = ProtectionBasic
	}

	s.Metrics = s.Metrics.Apply(r.MetricDeltas)

	// Detected absolute readings override the composed deltas.
	if v, ok := Number(r.ExtraContext["riskScore"]); ok {
		s.Metrics.RiskScore = clamp(v, 0, 100)
		s.Metrics.recomputeHealth()
	}
	if v, ok := Number(r.ExtraContext["ltvRatio"]); ok {
		s.Metrics.LTV = clamp(v, 0, 100)
	}
	if level, ok := r.ExtraContext["protectionLevel"].(string); ok && level != "" {
		s.Metrics.ProtectionLevel = level
	}

	s.Log(now, OriginSystem, "%s: %s", action, r.Message)

	if next := r.FollowUp(); next != "" {
		s.RecommendedAction = next
	} else if action == s.RecommendedAction {
		s.RecommendedAction = ""
	}
}

// Number extracts a float from the numeric representations found in
// extra-context maps, before and after a JSON round trip.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
