package commitment

import (
	"fmt"
	"math"

	"github.com/kilianp07/ucommit/core/model"
)

// Cost recomputes the objective of a solution from its commitments and
// dispatch under formulation f.
func (f Formulation) Cost(gens []model.Generator, sol model.CommitmentSolution) float64 {
	var total float64
	for i, g := range gens {
		prev := int(f.initial(i))
		for _, up := range sol.Units[i] {
			total += g.CostPerUnit * up.Dispatch
			switch f.Startup {
			case StartupOnTransition:
				if up.Status == 1 && prev == 0 {
					total += g.StartupCost
				}
			default:
				total += g.StartupCost * float64(up.Status)
			}
			prev = up.Status
		}
	}
	return total
}

// Verify checks an optimal solution against the constraints without relying
// on the solver: status values, status/dispatch consistency, capacity bounds,
// power balance and, when enabled, minimum up/down times.
func (f Formulation) Verify(sc model.Scenario, gens []model.Generator, sol model.CommitmentSolution, tol float64) error {
	if len(sol.Units) != len(gens) {
		return fmt.Errorf("solution has %d generators, want %d", len(sol.Units), len(gens))
	}
	T := sc.Horizon()
	for i, g := range gens {
		if len(sol.Units[i]) != T {
			return fmt.Errorf("generator %d has %d periods, want %d", i, len(sol.Units[i]), T)
		}
		for t, up := range sol.Units[i] {
			switch up.Status {
			case 0:
				if up.Dispatch != 0 {
					return fmt.Errorf("generator %d period %d: offline unit dispatches %g", i, t, up.Dispatch)
				}
			case 1:
				if up.Dispatch < g.PMin-tol || up.Dispatch > g.PMax+tol {
					return fmt.Errorf("generator %d period %d: dispatch %g outside [%g, %g]",
						i, t, up.Dispatch, g.PMin, g.PMax)
				}
			default:
				return fmt.Errorf("generator %d period %d: status %d not binary", i, t, up.Status)
			}
		}
	}
	for t, p := range sc.Periods {
		if gap := sol.TotalDispatch(t) + p.Renewable - p.Demand; math.Abs(gap) > tol {
			return fmt.Errorf("period %d: power balance off by %g", t, gap)
		}
	}
	if f.EnforceMinUpDown {
		return f.verifyMinUpDown(gens, sol)
	}
	return nil
}

func (f Formulation) verifyMinUpDown(gens []model.Generator, sol model.CommitmentSolution) error {
	for i, g := range gens {
		prev := int(f.initial(i))
		for t, up := range sol.Units[i] {
			if up.Status != prev {
				need := g.MinUpTime
				if up.Status == 0 {
					need = g.MinDownTime
				}
				for tau := t + 1; tau < len(sol.Units[i]) && tau < t+need; tau++ {
					if sol.Units[i][tau].Status != up.Status {
						return fmt.Errorf("generator %d switched at %d and again at %d", i, t, tau)
					}
				}
			}
			prev = up.Status
		}
	}
	return nil
}
