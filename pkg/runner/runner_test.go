package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/pkg/adapters/memory"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/aretw0/vaultguard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newManager(rolls ...float64) *session.Manager {
	instant := []engine.Option{engine.WithRandom(ports.Sequence(rolls...)), engine.WithWaiter(ports.NoWait)}
	return session.NewManager(memory.NewStore(),
		session.WithResolver(engine.NewResolver(instant...)),
		session.WithClassifier(engine.NewClassifier(engine.WithRandom(ports.Sequence(0)), engine.WithWaiter(ports.NoWait))),
		session.WithCountdowns(time.Hour, time.Hour),
	)
}

func run(t *testing.T, m *session.Manager, input string) string {
	t.Helper()
	var out bytes.Buffer
	r := runner.NewRunner(
		runner.WithInput(strings.NewReader(input)),
		runner.WithOutput(&out),
		runner.WithSessionID("chat-1"),
	)
	require.NoError(t, r.Run(context.Background(), m))
	return out.String()
}

func TestRunner_Conversation(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := newManager(0.9)
	defer m.Close()

	out := run(t, m, "what is my status?\nconnect my wallet\n\nexit\nnever read\n")

	assert.Contains(t, out, "Session chat-1.")
	assert.Contains(t, out, "IDLE")
	assert.Contains(t, out, "### Connect Wallet (success)")
	assert.Contains(t, out, "Goodbye.")

	s, err := m.Load(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.True(t, s.Connected)
	assert.NotContains(t, s.AuditSummary(), "never read")
}

func TestRunner_CancelPendingAutoAction(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := newManager(0)
	defer m.Close()

	out := run(t, m, "cancel\nscan my vault\ncancel\n")

	assert.Contains(t, out, "No auto-action pending.")
	assert.Contains(t, out, "### Scan Vault (error)")
	assert.Contains(t, out, "Auto-action "+domain.ActionAntiLiquidation+" in 1h0m0s")
	assert.Contains(t, out, "Auto-action "+domain.ActionAntiLiquidation+" cancelled.")

	_, _, pending := m.PendingAutoAction("chat-1")
	assert.False(t, pending)
}

func TestRunner_ResetAndEOF(t *testing.T) {
	m := newManager(0.9)
	defer m.Close()

	out := run(t, m, "connect wallet\nreset") // no trailing newline

	assert.Contains(t, out, "Session reset.")
	s, err := m.Load(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.False(t, s.Connected)
}

func TestRunner_RejectsControlOnlyInput(t *testing.T) {
	m := newManager(0.9)
	defer m.Close()

	out := run(t, m, "\x1b\x07\n")
	assert.Contains(t, out, "Error: input is empty")
}

func TestRunner_ContextCancelled(t *testing.T) {
	m := newManager(0.9)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.NewRunner(runner.WithInput(strings.NewReader("hello\n")), runner.WithOutput(&bytes.Buffer{}))
	err := r.Run(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}
