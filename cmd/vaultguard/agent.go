package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent <name>",
	Short: "Run one guardian agent on raw readings",
	Long: fmt.Sprintf(`Runs a guardian agent and prints its verdict as JSON. Agents:
  %s`, strings.Join(engine.Agents(), "\n  ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: engine.Agents(),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		number := func(name string) *float64 {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetFloat64(name)
			return &v
		}

		req := engine.AgentRequest{
			LTV:        number("ltv"),
			MaxLTV:     number("max-ltv"),
			Gas:        number("gas"),
			Price:      number("price"),
			Threshold:  number("threshold"),
			CurrentAPR: number("current-apr"),
			BestAPR:    number("best-apr"),
		}
		req.MempoolAlert, _ = flags.GetBool("mempool-alert")
		req.Action, _ = flags.GetString("action")
		req.Pool, _ = flags.GetString("pool")

		verdict, err := engine.EvaluateAgent(args[0], req)
		if err != nil {
			return err
		}
		return printJSON(cmd, verdict)
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)

	f := agentCmd.Flags()
	f.Float64("ltv", 0, "liquidation-watchdog: current LTV in percent")
	f.Float64("max-ltv", 0, "liquidation-watchdog: LTV limit in percent")
	f.Float64("gas", 0, "mev-defense: gas price in gwei")
	f.Bool("mempool-alert", false, "mev-defense: the mempool shows sandwich activity")
	f.Float64("price", 0, "oracle-action: oracle price")
	f.Float64("threshold", 0, "oracle-action: trigger price")
	f.String("action", "", "oracle-action: action to trigger")
	f.Float64("current-apr", 0, "yield-switch: APR of the current vault")
	f.Float64("best-apr", 0, "yield-switch: best APR on offer")
	f.String("pool", "", "yield-switch: pool offering the best APR")
}
