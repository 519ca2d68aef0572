package milp

import "fmt"

// Status is the termination code of a solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	Error
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case Error:
		return "error"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is returned by a Solver. X and Objective are only meaningful when
// Status is Optimal.
type Result struct {
	Status    Status
	X         []float64
	Objective float64
	// Nodes counts the relaxations solved during the search.
	Nodes int
	// Err carries the underlying cause for Error and TimedOut.
	Err error
}
