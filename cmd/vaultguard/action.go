package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/vaultguard/pkg/domain"
	"github.com/aretw0/vaultguard/pkg/runner"
	"github.com/spf13/cobra"
)

var actionCmd = &cobra.Command{
	Use:   "action <name>",
	Short: "Resolve one action and print the result as JSON",
	Long: fmt.Sprintf(`Resolves a single action without a session. Known actions:
  %s
Other names yield a generic informational result.`, strings.Join(domain.Actions(), "\n  ")),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		action, err := runner.SanitizeMessage(strings.Join(args, " "))
		if err != nil {
			return err
		}

		result, err := a.guard.Resolve(cmd.Context(), action, a.cfg.DemoMode)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Run the proactive alert check on raw metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		risk, _ := cmd.Flags().GetFloat64("risk")
		ltv, _ := cmd.Flags().GetFloat64("ltv")

		alert, triggered, err := a.guard.Check(cmd.Context(), risk, ltv)
		if err != nil {
			return err
		}
		if !triggered {
			fmt.Fprintln(cmd.OutOrStdout(), "No alert.")
			return nil
		}
		return printJSON(cmd, alert)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(alertCmd)

	alertCmd.Flags().Float64("risk", 0, "Risk score (0-100)")
	alertCmd.Flags().Float64("ltv", 0, "Loan-to-value ratio (0-100)")
	alertCmd.MarkFlagRequired("risk")
	alertCmd.MarkFlagRequired("ltv")
}
