package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, now)
		session.Status = domain.AgentActive
		session.Step = 2
		session.Metrics.RiskScore = 65
		session.RecommendedAction = domain.ActionOptimizeYield
		session.Log(now, domain.OriginUser, "USER INITIATED: %s", domain.ActionScanVault)

		require.NoError(t, store.Save(ctx, session), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.AgentActive, loaded.Status)
		assert.Equal(t, 2, loaded.Step)
		assert.Equal(t, 65.0, loaded.Metrics.RiskScore)
		assert.Equal(t, domain.ActionOptimizeYield, loaded.RecommendedAction)
		require.Len(t, loaded.Audit, 1)
		assert.Equal(t, "USER INITIATED: Scan Vault", loaded.Audit[0].Message)
	})

	t.Run("Isolation", func(t *testing.T) {
		session := domain.NewSession(sessionID, now)
		require.NoError(t, store.Save(ctx, session))

		session.Log(now, domain.OriginUser, "mutated after save")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Audit, "stored session must not alias the caller's value")

		loaded.Step = 99
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, now)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, now))
		_ = store.Save(ctx, domain.NewSession(id2, now))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
