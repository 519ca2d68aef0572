package evaluate

import (
	"context"
	"fmt"
	"math"

	"github.com/kilianp07/ucommit/core/model"
)

// HintSolver solves a scenario with or without a predicted commitment.
type HintSolver interface {
	Solve(ctx context.Context, sc model.Scenario, gens []model.Generator) (model.CommitmentSolution, error)
	SolveWithHint(ctx context.Context, sc model.Scenario, gens []model.Generator, hint [][]int) (model.CommitmentSolution, error)
}

// ScenarioPredictor predicts a commitment, indexed [generator][period].
type ScenarioPredictor interface {
	PredictScenario(sc model.Scenario) ([][]int, error)
}

// WarmStartReport compares cold solves with solves seeded by predictions.
type WarmStartReport struct {
	Scenarios int
	// Compared counts scenarios whose cold solve was optimal.
	Compared  int
	ColdNodes int
	WarmNodes int
	// Mismatches counts warm solves that did not reproduce the cold
	// objective. It is zero unless the solver is faulty.
	Mismatches int
	// HintAgreement is the fraction of (generator, period) statuses where
	// the prediction equals the cold optimum.
	HintAgreement float64
}

// NodeReduction is the relative drop in branch-and-bound nodes.
func (w WarmStartReport) NodeReduction() float64 {
	if w.ColdNodes == 0 {
		return 0
	}
	return 1 - float64(w.WarmNodes)/float64(w.ColdNodes)
}

// CompareWarmStart solves every scenario cold and warm-started, in order.
// tol is the relative objective tolerance.
func CompareWarmStart(ctx context.Context, s HintSolver, p ScenarioPredictor, scenarios []model.Scenario, gens []model.Generator, tol float64) (WarmStartReport, error) {
	r := WarmStartReport{Scenarios: len(scenarios)}
	agree, total := 0, 0
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		cold, err := s.Solve(ctx, sc, gens)
		if err != nil {
			return r, fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
		if cold.Status != model.StatusOptimal {
			continue
		}
		hint, err := p.PredictScenario(sc)
		if err != nil {
			return r, fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
		warm, err := s.SolveWithHint(ctx, sc, gens, hint)
		if err != nil {
			return r, fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
		r.Compared++
		r.ColdNodes += cold.Nodes
		r.WarmNodes += warm.Nodes
		if warm.Status != model.StatusOptimal ||
			math.Abs(warm.Objective-cold.Objective) > tol*(1+math.Abs(cold.Objective)) {
			r.Mismatches++
		}
		for i := range hint {
			for t := range hint[i] {
				total++
				if hint[i][t] == cold.At(i, t).Status {
					agree++
				}
			}
		}
	}
	if total > 0 {
		r.HintAgreement = float64(agree) / float64(total)
	}
	return r, nil
}
