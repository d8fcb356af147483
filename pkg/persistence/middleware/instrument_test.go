package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vaultguard/pkg/adapters/memory"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/persistence/middleware"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_Contract(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := middleware.Chain(memory.NewStore(),
		middleware.NewLoggingMiddleware(logger),
		middleware.NewMetricsMiddleware(prometheus.NewRegistry()),
	)
	ports.RunSessionStoreContract(t, store)
	assert.Contains(t, buf.String(), "op=save")
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			calls = append(calls, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, calls, "inner wraps the store first")
}

func TestLoggingMiddleware_Failures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	store := middleware.NewLoggingMiddleware(logger)(memory.NewStore())
	_, err := store.Load(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Empty(t, buf.String(), "a missing session is not logged as a failure")

	store = middleware.NewLoggingMiddleware(logger)(FailingStore{err: assert.AnError})
	assert.ErrorIs(t, store.Save(ctx, domain.NewSession("s1", time.Now())), assert.AnError)
	assert.True(t, strings.Contains(buf.String(), "Session store operation failed"), buf.String())
	assert.Contains(t, buf.String(), "session_id=s1")
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := middleware.NewMetricsMiddleware(reg)(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("s1", time.Now())))
	_, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	_, err = store.Load(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	count, err := testutil.GatherAndCount(reg, "vaultguard_store_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "series: save/ok, load/ok, load/not_found")
}
