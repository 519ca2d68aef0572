package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate scenarios and print summary statistics",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	_, stop, cfg, svc, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	_, st := svc.Generate()
	fmt.Fprintf(cmd.OutOrStdout(),
		"scenarios=%d periods=%d seed=%d demand=%.3f±%.3f renewable=%.3f±%.3f net_load=[%.3f, %.3f] mean=%.3f over_capacity=%d\n",
		st.Scenarios, st.Periods, cfg.Scenario.Seed, st.MeanDemand, st.StdDemand, st.MeanRenewable, st.StdRenewable,
		st.MinNetLoad, st.MaxNetLoad, st.MeanNetLoad, st.OverCapacity)
	return nil
}
