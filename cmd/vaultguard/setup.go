package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/vaultguard"
	"github.com/aretw0/vaultguard/internal/config"
	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/adapters/memory"
	"github.com/aretw0/vaultguard/pkg/adapters/redis"
	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/observability"
	"github.com/aretw0/vaultguard/pkg/persistence/middleware"
	"github.com/aretw0/vaultguard/pkg/ports"
	"github.com/aretw0/vaultguard/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app is everything a command needs once flags and config are resolved.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	guard  *vaultguard.Guard
	health func(context.Context) error
	close  func() error
}

// loadConfig reads the config file and environment, then applies explicit flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("instant") {
		cfg.Instant, _ = flags.GetBool("instant")
	}
	if flags.Changed("demo") {
		cfg.DemoMode, _ = flags.GetBool("demo")
	}
	return cfg, cfg.Validate()
}

// setup builds the Guard described by the config. Logs always go to Stderr
// so stdio transports keep Stdout clean.
// A nil reg skips store metrics.
func setup(cmd *cobra.Command, reg prometheus.Registerer, hooks ...domain.LifecycleHooks) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithFormat(os.Stderr, level, cfg.LogFormat)
	slog.SetDefault(logger)

	var common []engine.Option
	common = append(common, engine.WithLogger(logger))
	if cfg.Instant {
		common = append(common, engine.WithWaiter(ports.NoWait))
	}
	with := func(opts ...engine.Option) []engine.Option {
		return append(append([]engine.Option{}, common...), opts...)
	}

	a := &app{cfg: cfg, logger: logger, close: func() error { return nil }}
	opts := []vaultguard.Option{
		vaultguard.WithLogger(logger),
		vaultguard.WithDemoMode(cfg.DemoMode),
		vaultguard.WithLifecycleHooks(observability.LogHooks(logger)),
		vaultguard.WithSessionOptions(
			session.WithResolver(engine.NewResolver(with(
				engine.WithDelay(cfg.Delays.Resolve),
				engine.WithWeights(cfg.Weights),
			)...)),
			session.WithClassifier(engine.NewClassifier(with(engine.WithDelay(cfg.Delays.Classify))...)),
			session.WithMonitor(engine.NewMonitor(with(engine.WithDelay(cfg.Delays.Alert))...)),
			session.WithCountdowns(cfg.Monitor.CriticalCountdown, cfg.Monitor.FollowUpCountdown),
		),
	}
	for _, h := range hooks {
		opts = append(opts, vaultguard.WithLifecycleHooks(h))
	}

	var store ports.SessionStore = memory.NewStore()
	if cfg.Redis.Addr != "" {
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := rs.Ping(cmd.Context()); err != nil {
			rs.Close()
			return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.Addr, err)
		}
		store = rs
		opts = append(opts, vaultguard.WithLocker(redis.NewLocker(rs.Client(), cfg.Redis.Prefix)))
		a.health = rs.Ping
		a.close = rs.Close
		logger.Info("Using Redis session store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if reg != nil {
		mws = append(mws, middleware.NewMetricsMiddleware(reg))
	}
	opts = append(opts, vaultguard.WithStore(middleware.Chain(store, mws...)))

	a.guard = vaultguard.New(opts...)
	return a, nil
}

// Close stops pending countdowns and releases the store.
func (a *app) Close() error {
	a.guard.Close()
	return a.close()
}
