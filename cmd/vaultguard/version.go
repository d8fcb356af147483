package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vaultguard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vaultguard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vaultguard version %s\n", strings.TrimSpace(vaultguard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
