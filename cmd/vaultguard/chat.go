package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/vaultguard/internal/presentation/tui"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Super Eliza in the terminal",
	Long: `Starts an interactive session. Type a message to talk to the guard,
"cancel" to abort a pending auto-action, "reset" to start over and "exit" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID, _ := cmd.Flags().GetString("session")

		renderer := runner.ContentRenderer(tui.PlainRenderer)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
			renderer = tui.NewRenderer()
		}

		r := runner.NewRunner(
			runner.WithInput(os.Stdin),
			runner.WithOutput(os.Stdout),
			runner.WithLogger(a.logger),
			runner.WithSessionID(sessionID),
			runner.WithRenderer(renderer),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer stop() // leaving the chat stops the monitor
			return ignoreCancel(r.Run(gctx, a.guard.Manager()))
		})
		if a.cfg.Monitor.Enabled {
			g.Go(func() error {
				return ignoreCancel(a.guard.Manager().Watch(gctx, a.cfg.Monitor.Interval))
			})
		}
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (default: a new one)")
}
