package model

import "fmt"

// Status is the outcome of a commitment solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusSolverError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusSolverError:
		return "solver_error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Err returns the sentinel error matching the status, or nil for Optimal.
func (s Status) Err() error {
	switch s {
	case StatusOptimal:
		return nil
	case StatusInfeasible:
		return ErrInfeasible
	default:
		return ErrSolver
	}
}

// UnitPeriod is the decision for one generator at one time step.
type UnitPeriod struct {
	Status   int     `json:"status"`
	Dispatch float64 `json:"dispatch"`
}

// CommitmentSolution holds the commitment and dispatch for every
// (generator, period) pair. Units is indexed [generator][period] and is nil
// unless Status is Optimal. The zero value reads as Optimal, so producers
// build rejected solutions with Rejected.
type CommitmentSolution struct {
	ScenarioID string         `json:"scenario_id"`
	Status     Status         `json:"status"`
	Objective  float64        `json:"objective"`
	Units      [][]UnitPeriod `json:"units,omitempty"`
	// Nodes is the number of branch-and-bound nodes explored.
	Nodes int `json:"nodes"`
	// Reason explains a non-optimal status.
	Reason string `json:"reason,omitempty"`
}

// Rejected is the solution returned next to an input error.
func Rejected(scenarioID string, err error) CommitmentSolution {
	return CommitmentSolution{ScenarioID: scenarioID, Status: StatusSolverError, Reason: err.Error()}
}

// At returns the decision for generator i at period t.
func (s CommitmentSolution) At(i, t int) UnitPeriod { return s.Units[i][t] }

// StatusVector returns the commitment status of every generator at period t.
func (s CommitmentSolution) StatusVector(t int) []int {
	out := make([]int, len(s.Units))
	for i := range s.Units {
		out[i] = s.Units[i][t].Status
	}
	return out
}

// TotalDispatch sums the dispatch of all generators at period t.
func (s CommitmentSolution) TotalDispatch(t int) float64 {
	var sum float64
	for i := range s.Units {
		sum += s.Units[i][t].Dispatch
	}
	return sum
}
