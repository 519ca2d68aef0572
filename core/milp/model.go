package milp

import (
	"fmt"
	"math"
)

// VarKind selects the domain of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Var is a decision variable. Upper may be +Inf; Lower must be finite.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is Σ terms (sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimisation problem.
type Model struct {
	Vars        []Var
	Objective   []float64
	Offset      float64
	Constraints []Constraint
	// Start optionally holds an initial assignment for integer variables,
	// NaN meaning "no hint". It is used to seed the incumbent.
	Start []float64
}

// AddVar appends a variable and returns its index.
func (m *Model) AddVar(name string, kind VarKind, lower, upper float64) int {
	if kind == Binary {
		lower, upper = math.Max(lower, 0), math.Min(upper, 1)
	}
	m.Vars = append(m.Vars, Var{Name: name, Kind: kind, Lower: lower, Upper: upper})
	m.Objective = append(m.Objective, 0)
	return len(m.Vars) - 1
}

// SetCost sets the objective coefficient of variable j.
func (m *Model) SetCost(j int, c float64) { m.Objective[j] = c }

// AddConstraint appends a constraint.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// SetStart records an initial value for variable j.
func (m *Model) SetStart(j int, v float64) {
	if m.Start == nil {
		m.Start = make([]float64, len(m.Vars))
		for i := range m.Start {
			m.Start[i] = math.NaN()
		}
	}
	for len(m.Start) < len(m.Vars) {
		m.Start = append(m.Start, math.NaN())
	}
	m.Start[j] = v
}

// Validate checks the model is well formed.
func (m *Model) Validate() error {
	if len(m.Objective) != len(m.Vars) {
		return fmt.Errorf("objective has %d coefficients for %d variables", len(m.Objective), len(m.Vars))
	}
	for j, v := range m.Vars {
		if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) || math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %s: invalid bounds [%g, %g]", v.Name, v.Lower, v.Upper)
		}
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %d (%s): lower %g above upper %g", j, v.Name, v.Lower, v.Upper)
		}
	}
	for _, c := range m.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(m.Vars) {
				return fmt.Errorf("constraint %s references unknown variable %d", c.Name, t.Var)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of x.
func (m *Model) Evaluate(x []float64) float64 {
	obj := m.Offset
	for j, c := range m.Objective {
		obj += c * x[j]
	}
	return obj
}

// Violation returns the largest constraint or bound violation of x.
func (m *Model) Violation(x []float64) float64 {
	var worst float64
	for j, v := range m.Vars {
		worst = math.Max(worst, v.Lower-x[j])
		worst = math.Max(worst, x[j]-v.Upper)
	}
	for _, c := range m.Constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			worst = math.Max(worst, lhs-c.RHS)
		case GreaterEq:
			worst = math.Max(worst, c.RHS-lhs)
		default:
			worst = math.Max(worst, math.Abs(lhs-c.RHS))
		}
	}
	return worst
}
