package ports

import (
	"context"

	"github.com/aretw0/vaultguard/pkg/domain"
)

// SessionStore defines the interface for keeping session snapshots between requests.
// Implementations must isolate stored values from callers (copy on save and load).
type SessionStore interface {
	// Save stores the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
