package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

type simplexFunc func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error)

// simplex points to the LP routine. Tests override it to simulate numerical
// failures and slow relaxations.
var simplex simplexFunc = lp.Simplex

var errShape = errors.New("more equality rows than free variables")

type stdRow struct {
	a     []float64
	slack float64 // +1 for <=, -1 for >=, 0 for =
	rhs   float64
}

// relax solves the LP relaxation of m with variable bounds lo/hi. It returns
// lp.ErrInfeasible or lp.ErrUnbounded for those outcomes, and the context
// error when ctx ends first.
//
// Upper-bound rows of integer variables are added lazily: the LP is first
// solved without them and only the bounds the solution violates are added
// before solving again. Dropping rows only enlarges the feasible region, so
// a solution within every bound is optimal for the full relaxation.
func relax(ctx context.Context, m *Model, lo, hi []float64, tol, feasTol float64) ([]float64, error) {
	lazy := make([]bool, len(m.Vars))
	pending := false
	for j, v := range m.Vars {
		if v.Kind != Continuous && !math.IsInf(hi[j], 1) && hi[j]-lo[j] > feasTol {
			lazy[j], pending = true, true
		}
	}
	for {
		x, err := relaxRows(ctx, m, lo, hi, lazy, tol, feasTol)
		if errors.Is(err, lp.ErrUnbounded) && pending {
			clear(lazy)
			pending = false
			continue
		}
		if err != nil {
			return nil, err
		}
		violated := false
		for j := range lazy {
			if lazy[j] && x[j] > hi[j]+feasTol {
				lazy[j], violated = false, true
			}
		}
		if !violated {
			return x, nil
		}
	}
}

// relaxRows builds the standard form without the upper-bound rows of lazy
// variables and solves it. Variables with lo == hi are substituted as
// constants; every other variable is shifted by its lower bound so the
// problem can be handed to the simplex in standard form (A x = b, x >= 0).
func relaxRows(ctx context.Context, m *Model, lo, hi []float64, lazy []bool, tol, feasTol float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(m.Vars)
	col := make([]int, n)
	ncols := 0
	for j := range m.Vars {
		if hi[j]-lo[j] > feasTol {
			col[j] = ncols
			ncols++
		} else {
			col[j] = -1
		}
	}

	var rows []stdRow
	addRow := func(a []float64, sense Sense, rhs float64) error {
		empty := true
		for _, v := range a {
			if v != 0 {
				empty = false
				break
			}
		}
		if empty {
			switch {
			case sense == LessEq && rhs < -feasTol,
				sense == GreaterEq && rhs > feasTol,
				sense == Equal && math.Abs(rhs) > feasTol:
				return lp.ErrInfeasible
			}
			return nil
		}
		r := stdRow{a: a, rhs: rhs}
		switch sense {
		case LessEq:
			r.slack = 1
		case GreaterEq:
			r.slack = -1
		}
		rows = append(rows, r)
		return nil
	}

	for _, c := range m.Constraints {
		a := make([]float64, ncols)
		rhs := c.RHS
		for _, t := range c.Terms {
			rhs -= t.Coef * lo[t.Var]
			if k := col[t.Var]; k >= 0 {
				a[k] += t.Coef
			}
		}
		if err := addRow(a, c.Sense, rhs); err != nil {
			return nil, err
		}
	}
	for j := range m.Vars {
		if col[j] >= 0 && !lazy[j] && !math.IsInf(hi[j], 1) {
			a := make([]float64, ncols)
			a[col[j]] = 1
			if err := addRow(a, LessEq, hi[j]-lo[j]); err != nil {
				return nil, err
			}
		}
	}

	// Columns that appear in no row stay at their lower bound unless they
	// improve the objective without limit.
	used := make([]bool, ncols)
	for _, r := range rows {
		for k, v := range r.a {
			if v != 0 {
				used[k] = true
			}
		}
	}
	keep := make([]int, ncols)
	nUsed := 0
	for j := range m.Vars {
		k := col[j]
		if k < 0 {
			continue
		}
		if !used[k] {
			if m.Objective[j] < 0 {
				return nil, lp.ErrUnbounded
			}
			keep[k] = -1
			continue
		}
		keep[k] = nUsed
		nUsed++
	}

	x := make([]float64, n)
	copy(x, lo)
	if len(rows) == 0 {
		return x, nil
	}

	nSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nSlack++
		}
	}
	total := nUsed + nSlack
	if len(rows) > total {
		return nil, errShape
	}

	A := mat.NewDense(len(rows), total, nil)
	b := make([]float64, len(rows))
	s := nUsed
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, v := range r.a {
			if v != 0 && keep[k] >= 0 {
				A.Set(i, keep[k], sign*v)
			}
		}
		if r.slack != 0 {
			A.Set(i, s, sign*r.slack)
			s++
		}
		b[i] = sign * r.rhs
	}
	c := make([]float64, total)
	for j := range m.Vars {
		if k := col[j]; k >= 0 && keep[k] >= 0 {
			c[keep[k]] = m.Objective[j]
		}
	}

	sol, err := callSimplex(ctx, c, A, b, tol)
	if err != nil {
		return nil, err
	}
	for j := range m.Vars {
		if k := col[j]; k >= 0 && keep[k] >= 0 {
			x[j] += sol[keep[k]]
		}
	}
	return x, nil
}

// callSimplex runs the LP routine and returns the context error as soon as
// ctx ends; an abandoned relaxation finishes in the background and its
// result is discarded.
func callSimplex(ctx context.Context, c []float64, A mat.Matrix, b []float64, tol float64) ([]float64, error) {
	solve := simplex
	if ctx.Done() == nil {
		return runSimplex(solve, c, A, b, tol)
	}
	type result struct {
		sol []float64
		err error
	}
	done := make(chan result, 1)
	go func() {
		sol, err := runSimplex(solve, c, A, b, tol)
		done <- result{sol: sol, err: err}
	}()
	select {
	case r := <-done:
		return r.sol, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runSimplex converts panics raised by the LP package on malformed input
// into errors so a single bad relaxation surfaces as a solver error.
func runSimplex(solve simplexFunc, c []float64, A mat.Matrix, b []float64, tol float64) (sol []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex panic: %v", r)
		}
	}()
	_, sol, err = solve(c, A, b, tol, nil)
	return sol, err
}
