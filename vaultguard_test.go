package vaultguard_test

import (
	"context"
	"testing"

	"github.com/aretw0/vaultguard"
	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/adapters/memory"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, opts ...vaultguard.Option) *vaultguard.Guard {
	t.Helper()
	base := []vaultguard.Option{vaultguard.WithEngineOptions(
		engine.WithRandom(ports.Sequence(0.9)),
		engine.WithWaiter(ports.NoWait),
	)}
	g := vaultguard.New(append(base, opts...)...)
	t.Cleanup(g.Close)
	return g
}

func TestGuard_Resolve(t *testing.T) {
	g := newGuard(t)

	result, err := g.Resolve(context.Background(), domain.ActionConnectWallet, false)
	require.NoError(t, err)
	assert.Equal(t, domain.SeveritySuccess, result.Severity)

	_, err = g.Resolve(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGuard_Classify(t *testing.T) {
	g := newGuard(t)

	turn, intent, err := g.Classify(context.Background(), engine.ChatRequest{
		UserMessage: "what can you do?",
		Status:      domain.AgentIdle,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.IntentHelp, intent)
	assert.Nil(t, turn.ActionToTrigger)
}

func TestGuard_CustomStore(t *testing.T) {
	store := memory.NewStore()
	g := newGuard(t, vaultguard.WithStore(store), vaultguard.WithDemoMode(false))
	ctx := context.Background()

	_, err := g.Start(ctx, "s1")
	require.NoError(t, err)

	reply, err := g.Chat(ctx, "s1", "connect wallet")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, saved.Connected)
	assert.False(t, g.Manager().DemoMode())
}

func TestGuard_Hooks(t *testing.T) {
	var resolved []string
	g := newGuard(t, vaultguard.WithLifecycleHooks(domain.LifecycleHooks{
		OnActionResolved: func(_ context.Context, ev *domain.ActionEvent) {
			resolved = append(resolved, ev.Action)
		},
	}))
	ctx := context.Background()

	_, err := g.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = g.Dispatch(ctx, "s1", domain.ActionConnectWallet)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ActionConnectWallet}, resolved)
}
