package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Store operation outcomes.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, domain.ErrSessionNotFound):
		return resultNotFound
	}
	return resultError
}

type observed struct {
	next    ports.SessionStore
	observe func(ctx context.Context, op, sessionID string, took time.Duration, err error)
}

func (s *observed) Save(ctx context.Context, session *domain.Session) error {
	start := time.Now()
	err := s.next.Save(ctx, session)
	s.observe(ctx, "save", session.ID, time.Since(start), err)
	return err
}

func (s *observed) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Load(ctx, sessionID)
	s.observe(ctx, "load", sessionID, time.Since(start), err)
	return session, err
}

func (s *observed) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := s.next.Delete(ctx, sessionID)
	s.observe(ctx, "delete", sessionID, time.Since(start), err)
	return err
}

func (s *observed) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := s.next.List(ctx)
	s.observe(ctx, "list", "", time.Since(start), err)
	return ids, err
}

// NewLoggingMiddleware logs every store operation at debug level and failures at warn.
// A missing session is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &observed{next: next, observe: func(ctx context.Context, op, sessionID string, took time.Duration, err error) {
			attrs := []any{"op", op, "duration", took}
			if sessionID != "" {
				attrs = append(attrs, "session_id", sessionID)
			}
			if outcome(err) == resultError {
				logger.WarnContext(ctx, "Session store operation failed", append(attrs, "err", err)...)
				return
			}
			logger.DebugContext(ctx, "Session store operation", attrs...)
		}}
	}
}

// NewMetricsMiddleware records the latency of store operations as
// vaultguard_store_operation_duration_seconds{op,result}.
func NewMetricsMiddleware(reg prometheus.Registerer) Middleware {
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vaultguard",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Latency of session store operations.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"op", "result"})
	if reg != nil {
		reg.MustRegister(latency)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &observed{next: next, observe: func(_ context.Context, op, _ string, took time.Duration, err error) {
			latency.WithLabelValues(op, outcome(err)).Observe(took.Seconds())
		}}
	}
}
