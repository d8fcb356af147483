package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vaultguard",
	Short: "VaultGuard simulates Super Eliza, an AI guard for DeFi vaults",
	Long: `VaultGuard resolves vault protection actions, answers chat messages and raises
proactive alerts over simulated vault metrics. Serve it over HTTP or MCP, or chat
with it from the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("instant", false, "Skip the simulated latency")
	rootCmd.PersistentFlags().Bool("demo", true, "Bias session outcomes towards the dramatic branches")
}
