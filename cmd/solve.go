package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ucommit/core/model"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the configured scenario, or the first generated one",
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop, cfg, svc, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	sc, sol, err := svc.SolveOne(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario %s: %s", sc.ID, sol.Status)
	if sol.Status != model.StatusOptimal {
		fmt.Fprintf(out, " (%s)\n", sol.Reason)
		return sol.Status.Err()
	}
	fmt.Fprintf(out, " objective=%.3f nodes=%d\n", sol.Objective, sol.Nodes)
	for t, p := range sc.Periods {
		fmt.Fprintf(out, "t=%d demand=%.3f renewable=%.3f", t, p.Demand, p.Renewable)
		for i := range cfg.Generators {
			u := sol.At(i, t)
			fmt.Fprintf(out, " g%d=%d/%.3f", i, u.Status, u.Dispatch)
		}
		fmt.Fprintln(out)
	}
	return nil
}
