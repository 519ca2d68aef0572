package commitment

import (
	"fmt"
	"math"

	"github.com/kilianp07/ucommit/core/milp"
	"github.com/kilianp07/ucommit/core/model"
)

// StartupMode selects how startup costs are charged.
type StartupMode int

const (
	// StartupPerPeriod charges startup_cost for every committed period.
	StartupPerPeriod StartupMode = iota
	// StartupOnTransition charges startup_cost only when a unit turns on.
	StartupOnTransition
)

func (m StartupMode) String() string {
	if m == StartupOnTransition {
		return "transition"
	}
	return "per_period"
}

// ParseStartupMode converts the configuration string to a StartupMode.
func ParseStartupMode(s string) (StartupMode, error) {
	switch s {
	case "", "per_period":
		return StartupPerPeriod, nil
	case "transition":
		return StartupOnTransition, nil
	default:
		return 0, fmt.Errorf("unknown startup mode %q", s)
	}
}

// Formulation describes the variant of the commitment model.
type Formulation struct {
	Startup StartupMode
	// EnforceMinUpDown adds minimum up and down time constraints. Units are
	// assumed to have been in their initial status long enough to change
	// state at t=0.
	EnforceMinUpDown bool
	// InitialStatus is the status of each generator before the horizon.
	// Missing entries mean offline.
	InitialStatus []int
}

func (f Formulation) initial(i int) float64 {
	if i < len(f.InitialStatus) && f.InitialStatus[i] > 0 {
		return 1
	}
	return 0
}

// Separable reports whether periods share no constraint or cost term, so
// each period can be solved as its own model.
func (f Formulation) Separable() bool {
	return f.Startup == StartupPerPeriod && !f.EnforceMinUpDown
}

// period returns the single-period scenario at t.
func period(sc model.Scenario, t int) model.Scenario {
	return model.Scenario{ID: sc.ID, Periods: sc.Periods[t : t+1]}
}

// variables indexes the model columns.
type variables struct {
	status   [][]int
	dispatch [][]int
	startup  [][]int // only for StartupOnTransition
}

// build translates a scenario into a MILP.
func (f Formulation) build(sc model.Scenario, gens []model.Generator) (*milp.Model, variables) {
	T := sc.Horizon()
	m := &milp.Model{}
	vars := variables{
		status:   make([][]int, len(gens)),
		dispatch: make([][]int, len(gens)),
	}
	if f.Startup == StartupOnTransition {
		vars.startup = make([][]int, len(gens))
	}

	for i, g := range gens {
		vars.status[i] = make([]int, T)
		vars.dispatch[i] = make([]int, T)
		for t := 0; t < T; t++ {
			u := m.AddVar(fmt.Sprintf("u[%d,%d]", i, t), milp.Binary, 0, 1)
			p := m.AddVar(fmt.Sprintf("p[%d,%d]", i, t), milp.Continuous, 0, math.Inf(1))
			vars.status[i][t], vars.dispatch[i][t] = u, p
			m.SetCost(p, g.CostPerUnit)
			if f.Startup == StartupPerPeriod {
				m.SetCost(u, g.StartupCost)
			}
			m.AddConstraint(fmt.Sprintf("pmax[%d,%d]", i, t), milp.LessEq, 0,
				milp.Term{Var: p, Coef: 1}, milp.Term{Var: u, Coef: -g.PMax})
			m.AddConstraint(fmt.Sprintf("pmin[%d,%d]", i, t), milp.GreaterEq, 0,
				milp.Term{Var: p, Coef: 1}, milp.Term{Var: u, Coef: -g.PMin})
		}
	}

	for t, per := range sc.Periods {
		terms := make([]milp.Term, len(gens))
		for i := range gens {
			terms[i] = milp.Term{Var: vars.dispatch[i][t], Coef: 1}
		}
		m.AddConstraint(fmt.Sprintf("balance[%d]", t), milp.Equal, per.Demand-per.Renewable, terms...)
	}

	if f.Startup == StartupOnTransition {
		for i, g := range gens {
			vars.startup[i] = make([]int, T)
			for t := 0; t < T; t++ {
				v := m.AddVar(fmt.Sprintf("v[%d,%d]", i, t), milp.Binary, 0, 1)
				vars.startup[i][t] = v
				m.SetCost(v, g.StartupCost)
				// v[t] >= u[t] - u[t-1]
				terms := []milp.Term{{Var: v, Coef: 1}, {Var: vars.status[i][t], Coef: -1}}
				rhs := 0.0
				if t > 0 {
					terms = append(terms, milp.Term{Var: vars.status[i][t-1], Coef: 1})
				} else {
					rhs = -f.initial(i)
				}
				m.AddConstraint(fmt.Sprintf("startup[%d,%d]", i, t), milp.GreaterEq, rhs, terms...)
			}
		}
	}

	if f.EnforceMinUpDown {
		f.addMinUpDown(m, vars, gens, T)
	}
	return m, vars
}

// addMinUpDown adds, for every switch at t, the constraints keeping the unit
// in its new state for the following periods:
//
//	u[τ] >= u[t] - u[t-1]       τ = t+1 .. t+up-1
//	u[τ] <= 1 - (u[t-1] - u[t]) τ = t+1 .. t+down-1
func (f Formulation) addMinUpDown(m *milp.Model, vars variables, gens []model.Generator, T int) {
	for i, g := range gens {
		for t := 0; t < T; t++ {
			prev := func(terms []milp.Term, coef float64) ([]milp.Term, float64) {
				if t > 0 {
					return append(terms, milp.Term{Var: vars.status[i][t-1], Coef: coef}), 0
				}
				return terms, -coef * f.initial(i)
			}
			for tau := t + 1; tau < T && tau < t+g.MinUpTime; tau++ {
				terms, rhs := prev([]milp.Term{
					{Var: vars.status[i][tau], Coef: 1},
					{Var: vars.status[i][t], Coef: -1},
				}, 1)
				m.AddConstraint(fmt.Sprintf("minup[%d,%d,%d]", i, t, tau), milp.GreaterEq, rhs, terms...)
			}
			for tau := t + 1; tau < T && tau < t+g.MinDownTime; tau++ {
				terms, rhs := prev([]milp.Term{
					{Var: vars.status[i][tau], Coef: 1},
					{Var: vars.status[i][t], Coef: -1},
				}, 1)
				m.AddConstraint(fmt.Sprintf("mindown[%d,%d,%d]", i, t, tau), milp.LessEq, 1+rhs, terms...)
			}
		}
	}
}
