package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Status            *AgentStatus `json:"status,omitempty"`
	Step              *int         `json:"step,omitempty"`
	Connected         *bool        `json:"connected,omitempty"`
	VaultsDetected    *int         `json:"vaultsDetected,omitempty"`
	Metrics           *Metrics     `json:"metrics,omitempty"`
	RecommendedAction *string      `json:"recommendedAction,omitempty"`
	PendingAutoAction *string      `json:"pendingAutoAction,omitempty"`

	// Audit contains only entries appended since the old snapshot.
	Audit []AuditEntry `json:"audit,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}
	n := newSession

	if oldSession == nil || oldSession.Status != n.Status {
		diff.Status = &n.Status
	}
	if oldSession == nil || oldSession.Step != n.Step {
		diff.Step = &n.Step
	}
	if oldSession == nil || oldSession.Connected != n.Connected {
		diff.Connected = &n.Connected
	}
	if oldSession == nil || oldSession.VaultsDetected != n.VaultsDetected {
		diff.VaultsDetected = &n.VaultsDetected
	}
	if oldSession == nil || oldSession.Metrics != n.Metrics {
		diff.Metrics = &n.Metrics
	}
	// Empty strings are meaningful here: they clear the field on the client.
	if oldSession == nil || oldSession.RecommendedAction != n.RecommendedAction {
		diff.RecommendedAction = &n.RecommendedAction
	}
	if oldSession == nil || oldSession.PendingAutoAction != n.PendingAutoAction {
		diff.PendingAutoAction = &n.PendingAutoAction
	}

	diff.Audit = diffAudit(oldSession, n)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffAudit assumes the audit trail is append-only, except for resets.
func diffAudit(old, new *Session) []AuditEntry {
	if len(new.Audit) == 0 {
		return nil
	}
	if old == nil || len(new.Audit) < len(old.Audit) {
		return new.Audit
	}
	if len(new.Audit) > len(old.Audit) {
		return new.Audit[len(old.Audit):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.Step == nil &&
		d.Connected == nil &&
		d.VaultsDetected == nil &&
		d.Metrics == nil &&
		d.RecommendedAction == nil &&
		d.PendingAutoAction == nil &&
		len(d.Audit) == 0
}
