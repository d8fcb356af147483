package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	vghttp "github.com/aretw0/vaultguard/pkg/adapters/http"
	"github.com/aretw0/vaultguard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the drain of outstanding requests.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the VaultGuard HTTP API with session management, Server-Sent Events and
Prometheus metrics. The proactive monitor checks every connected session in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)

		a, err := setup(cmd, reg, metrics.Hooks())
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		handler, err := vghttp.NewHandler(a.guard.Manager(),
			vghttp.WithLogger(a.logger),
			vghttp.WithChatRateLimit(a.cfg.Server.ChatRate, a.cfg.Server.ChatBurst),
			vghttp.WithGatherer(reg),
			vghttp.WithHealthCheck(a.health),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			a.logger.Info("Starting VaultGuard Server", "address", srv.Addr, "demo_mode", a.cfg.DemoMode)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		if a.cfg.Monitor.Enabled {
			g.Go(func() error {
				return ignoreCancel(a.guard.Manager().Watch(ctx, a.cfg.Monitor.Interval))
			})
		}

		g.Go(func() error {
			<-ctx.Done()
			a.logger.Info("Shutdown signal received, draining requests")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			a.logger.Info("VaultGuard Server stopped gracefully")
			return nil
		})

		return g.Wait()
	},
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
