package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Build a corpus, train the commitment classifiers and evaluate them",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop, _, svc, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	rep, err := svc.Train(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	s := rep.Summary
	fmt.Fprintf(out, "run %s (%s)\n", rep.RunID, rep.Duration)
	fmt.Fprintf(out, "scenarios=%d optimal=%d infeasible=%d solver_errors=%d samples=%d train=%d test=%d\n",
		s.Scenarios, s.Optimal, s.Infeasible, s.SolverErrors, s.Samples, rep.Train, rep.Test)
	for _, f := range s.Failures {
		fmt.Fprintf(out, "  excluded %s: %s %s\n", f.ScenarioID, f.Status, f.Reason)
	}
	for _, g := range rep.Evaluation.Generators {
		fmt.Fprintf(out, "generator %d: accuracy=%.4f base_rate=%.4f tp=%d tn=%d fp=%d fn=%d\n",
			g.Generator, g.Accuracy, g.BaseRate, g.TruePositive, g.TrueNegative, g.FalsePositive, g.FalseNegative)
	}
	fmt.Fprintf(out, "exact_match=%.4f infeasible_predictions=%.4f\n", rep.Evaluation.ExactMatch, rep.Evaluation.Infeasible)
	ws := rep.WarmStart
	fmt.Fprintf(out, "warm start: compared=%d/%d cold_nodes=%d warm_nodes=%d reduction=%.2f%% hint_agreement=%.4f mismatches=%d\n",
		ws.Compared, ws.Scenarios, ws.ColdNodes, ws.WarmNodes, 100*ws.NodeReduction(), ws.HintAgreement, ws.Mismatches)
	return nil
}
