package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Solver is the capability the commitment optimizer depends on.
type Solver interface {
	Solve(ctx context.Context, m *Model) Result
}

// ErrNodeLimit is reported when the search exceeds MaxNodes.
var ErrNodeLimit = errors.New("node limit reached")

// BranchAndBound is a depth-first branch-and-bound solver. The zero value is
// not usable; create one with NewBranchAndBound.
type BranchAndBound struct {
	// Tolerance is passed to the simplex routine.
	Tolerance float64
	// IntegralityTolerance is the distance from an integer below which a
	// value is considered integral.
	IntegralityTolerance float64
	// FeasibilityTolerance bounds the constraint violation accepted on
	// constant rows and when checking a start assignment.
	FeasibilityTolerance float64
	// MaxNodes limits the number of relaxations; 0 means unlimited.
	MaxNodes int
}

// NewBranchAndBound returns a solver with default tolerances.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{
		Tolerance:            1e-9,
		IntegralityTolerance: 1e-6,
		FeasibilityTolerance: 1e-7,
		MaxNodes:             100000,
	}
}

type node struct {
	lo, hi []float64
	bound  float64
}

// Solve implements Solver. The context deadline bounds the search, including
// a relaxation in progress; a search interrupted by the deadline reports
// TimedOut and one interrupted by cancellation reports Error.
func (s *BranchAndBound) Solve(ctx context.Context, m *Model) Result {
	if err := m.Validate(); err != nil {
		return Result{Status: Error, Err: err}
	}
	lo := make([]float64, len(m.Vars))
	hi := make([]float64, len(m.Vars))
	for j, v := range m.Vars {
		lo[j], hi[j] = v.Lower, v.Upper
		if v.Kind != Continuous {
			lo[j] = math.Ceil(lo[j] - s.IntegralityTolerance)
			hi[j] = math.Floor(hi[j] + s.IntegralityTolerance)
			if lo[j] > hi[j] {
				return Result{Status: Infeasible}
			}
		}
	}

	var best []float64
	bestObj := math.Inf(1)
	nodes := 0
	if m.Start != nil {
		if err := ctx.Err(); err != nil {
			return interrupted(err, nodes)
		}
		nodes++
		if x, ok := s.tryStart(ctx, m, lo, hi); ok {
			best, bestObj = x, m.Evaluate(x)
		}
	}

	stack := []node{{lo: lo, hi: hi, bound: math.Inf(-1)}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return interrupted(err, nodes)
		}
		if s.MaxNodes > 0 && nodes >= s.MaxNodes {
			return Result{Status: TimedOut, Nodes: nodes, Err: ErrNodeLimit}
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.dominated(nd.bound, bestObj) {
			continue
		}

		nodes++
		x, err := relax(ctx, m, nd.lo, nd.hi, s.Tolerance, s.FeasibilityTolerance)
		switch {
		case isContextErr(err):
			return interrupted(err, nodes)
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return Result{Status: Unbounded, Nodes: nodes}
		case err != nil:
			return Result{Status: Error, Nodes: nodes, Err: fmt.Errorf("relaxation: %w", err)}
		}
		obj := m.Evaluate(x)
		if s.dominated(obj, bestObj) {
			continue
		}

		j := s.branchVar(m, x)
		if j < 0 {
			px, err := s.polish(ctx, m, nd.lo, nd.hi, x)
			if err != nil {
				return interrupted(err, nodes)
			}
			best, bestObj = px, m.Evaluate(px)
			continue
		}

		down := node{lo: nd.lo, hi: clone(nd.hi), bound: obj}
		down.hi[j] = math.Floor(x[j])
		up := node{lo: clone(nd.lo), hi: nd.hi, bound: obj}
		up.lo[j] = math.Ceil(x[j])
		// The child on the side of the fractional value is explored first.
		if x[j]-math.Floor(x[j]) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best == nil {
		return Result{Status: Infeasible, Nodes: nodes}
	}
	return Result{Status: Optimal, X: best, Objective: m.Evaluate(best), Nodes: nodes}
}

// interrupted maps a context error onto a result.
func interrupted(err error, nodes int) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Status: TimedOut, Nodes: nodes, Err: err}
	}
	return Result{Status: Error, Nodes: nodes, Err: err}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// tryStart fixes the integer variables to the start assignment and solves
// the remaining LP.
func (s *BranchAndBound) tryStart(ctx context.Context, m *Model, lo, hi []float64) ([]float64, bool) {
	flo, fhi := clone(lo), clone(hi)
	for j, v := range m.Vars {
		if v.Kind == Continuous || j >= len(m.Start) || math.IsNaN(m.Start[j]) {
			continue
		}
		val := math.Min(math.Max(math.Round(m.Start[j]), lo[j]), hi[j])
		flo[j], fhi[j] = val, val
	}
	x, err := relax(ctx, m, flo, fhi, s.Tolerance, s.FeasibilityTolerance)
	if err != nil {
		return nil, false
	}
	if s.branchVar(m, x) >= 0 {
		return nil, false
	}
	x = s.roundIntegers(m, x)
	if m.Violation(x) > s.FeasibilityTolerance*math.Max(1, scale(m)) {
		return nil, false
	}
	return x, true
}

// polish re-solves the LP with the integer variables fixed to their rounded
// values so continuous variables are consistent with exact integers. Only a
// context error is returned; other failures keep the rounded values.
func (s *BranchAndBound) polish(ctx context.Context, m *Model, lo, hi []float64, x []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rounded := s.roundIntegers(m, x)
	flo, fhi := clone(lo), clone(hi)
	for j, v := range m.Vars {
		if v.Kind != Continuous {
			flo[j], fhi[j] = rounded[j], rounded[j]
		}
	}
	px, err := relax(ctx, m, flo, fhi, s.Tolerance, s.FeasibilityTolerance)
	if isContextErr(err) {
		return nil, err
	}
	if err != nil {
		return rounded, nil
	}
	return s.roundIntegers(m, px), nil
}

func (s *BranchAndBound) dominated(obj, best float64) bool {
	if math.IsInf(best, 1) {
		return false
	}
	return obj >= best-1e-9*math.Max(1, math.Abs(best))
}

// branchVar returns the most fractional integer variable or -1.
func (s *BranchAndBound) branchVar(m *Model, x []float64) int {
	idx, worst := -1, s.IntegralityTolerance
	for j, v := range m.Vars {
		if v.Kind == Continuous {
			continue
		}
		f := math.Abs(x[j] - math.Round(x[j]))
		if f > worst {
			idx, worst = j, f
		}
	}
	return idx
}

func (s *BranchAndBound) roundIntegers(m *Model, x []float64) []float64 {
	out := clone(x)
	for j, v := range m.Vars {
		if v.Kind != Continuous {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

// scale is the largest absolute right-hand side, used to make feasibility
// checks relative.
func scale(m *Model) float64 {
	var sc float64
	for _, c := range m.Constraints {
		sc = math.Max(sc, math.Abs(c.RHS))
	}
	return sc
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
