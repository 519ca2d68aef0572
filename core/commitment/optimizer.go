package commitment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ucommit/core/logger"
	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/milp"
	"github.com/kilianp07/ucommit/core/model"
)

// Optimizer solves the unit-commitment problem of one scenario.
// It is safe for concurrent use when the underlying Solver is.
type Optimizer struct {
	solver  milp.Solver
	form    Formulation
	timeout time.Duration
	tol     float64
	log     logger.Logger
	sink    metrics.MetricsSink
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithSolver replaces the default branch-and-bound solver.
func WithSolver(s milp.Solver) Option { return func(o *Optimizer) { o.solver = s } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(o *Optimizer) { o.log = l } }

// WithSink records every solve on the sink.
func WithSink(s metrics.MetricsSink) Option { return func(o *Optimizer) { o.sink = s } }

// New creates an Optimizer from the configuration.
func New(cfg Config, opts ...Option) (*Optimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParseStartupMode(cfg.StartupMode)
	bb := milp.NewBranchAndBound()
	bb.Tolerance = cfg.Tolerance
	bb.IntegralityTolerance = cfg.IntegralityTolerance
	bb.MaxNodes = cfg.MaxNodes
	o := &Optimizer{
		solver: bb,
		form: Formulation{
			Startup:          mode,
			EnforceMinUpDown: cfg.EnforceMinUpDown,
			InitialStatus:    cfg.InitialStatus,
		},
		timeout: cfg.Timeout(),
		tol:     cfg.VerifyTolerance,
		log:     logger.NopLogger{},
		sink:    metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Formulation returns the model variant solved by o.
func (o *Optimizer) Formulation() Formulation { return o.form }

// Solve computes the optimal commitment of the scenario. The returned error
// is non-nil only for invalid input, in which case the solution carries
// StatusSolverError; infeasibility and solver failures are reported through
// the solution Status. The configured timeout bounds the whole call.
func (o *Optimizer) Solve(ctx context.Context, sc model.Scenario, gens []model.Generator) (model.CommitmentSolution, error) {
	return o.solve(ctx, sc, gens, nil)
}

// SolveWithHint solves like Solve but seeds the search with a predicted
// commitment, indexed [generator][period]. A hint never changes the optimal
// objective, only the amount of search.
func (o *Optimizer) SolveWithHint(ctx context.Context, sc model.Scenario, gens []model.Generator, hint [][]int) (model.CommitmentSolution, error) {
	if len(hint) != len(gens) {
		err := fmt.Errorf("%w: hint has %d generators, want %d", model.ErrInvalidInput, len(hint), len(gens))
		return model.Rejected(sc.ID, err), err
	}
	for i := range hint {
		if len(hint[i]) != sc.Horizon() {
			err := fmt.Errorf("%w: hint for generator %d has %d periods, want %d",
				model.ErrInvalidInput, i, len(hint[i]), sc.Horizon())
			return model.Rejected(sc.ID, err), err
		}
	}
	return o.solve(ctx, sc, gens, hint)
}

func (o *Optimizer) solve(ctx context.Context, sc model.Scenario, gens []model.Generator, hint [][]int) (model.CommitmentSolution, error) {
	if err := model.ValidateGenerators(gens); err != nil {
		return model.Rejected(sc.ID, err), err
	}
	if err := sc.Validate(); err != nil {
		return model.Rejected(sc.ID, err), err
	}

	start := time.Now()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	var sol model.CommitmentSolution
	if o.form.Separable() {
		sol = o.solvePeriods(ctx, sc, gens, hint)
	} else {
		sol = o.solveCoupled(ctx, sc, gens, hint)
	}
	if sol.Status == model.StatusOptimal {
		sol = o.verify(sc, gens, sol)
	}

	o.log.Debugw("commitment solved", map[string]any{
		"scenario":  sc.ID,
		"status":    sol.Status.String(),
		"objective": sol.Objective,
		"nodes":     sol.Nodes,
		"hint":      hint != nil,
		"separable": o.form.Separable(),
		"elapsed":   time.Since(start).String(),
	})
	if err := o.sink.RecordSolve(metrics.SolveEvent{
		ScenarioID: sc.ID,
		Status:     sol.Status,
		Objective:  sol.Objective,
		Nodes:      sol.Nodes,
		Duration:   time.Since(start),
		WarmStart:  hint != nil,
		Time:       time.Now(),
	}); err != nil {
		o.log.Warnf("record solve: %v", err)
	}
	return sol, nil
}

// solveCoupled solves the whole horizon as one model.
func (o *Optimizer) solveCoupled(ctx context.Context, sc model.Scenario, gens []model.Generator, hint [][]int) model.CommitmentSolution {
	m, vars := o.form.build(sc, gens)
	if hint != nil {
		o.applyHint(m, vars, hint)
	}
	return o.toSolution(sc, gens, vars, o.solver.Solve(ctx, m))
}

// solvePeriods solves every period as its own model and stitches the
// decisions together. The first non-optimal period decides the status.
func (o *Optimizer) solvePeriods(ctx context.Context, sc model.Scenario, gens []model.Generator, hint [][]int) model.CommitmentSolution {
	sol := model.CommitmentSolution{ScenarioID: sc.ID, Units: make([][]model.UnitPeriod, len(gens))}
	for i := range sol.Units {
		sol.Units[i] = make([]model.UnitPeriod, sc.Horizon())
	}
	for t := range sc.Periods {
		sub := period(sc, t)
		m, vars := o.form.build(sub, gens)
		if hint != nil {
			col := make([][]int, len(hint))
			for i := range hint {
				col[i] = hint[i][t : t+1]
			}
			o.applyHint(m, vars, col)
		}
		part := o.toSolution(sub, gens, vars, o.solver.Solve(ctx, m))
		sol.Nodes += part.Nodes
		if part.Status != model.StatusOptimal {
			part.Nodes = sol.Nodes
			part.Reason = fmt.Sprintf("period %d: %s", t, part.Reason)
			return part
		}
		for i := range gens {
			sol.Units[i][t] = part.Units[i][0]
		}
	}
	return sol
}

// verify recomputes the objective of an optimal solution and rejects one
// that breaks a physical limit.
func (o *Optimizer) verify(sc model.Scenario, gens []model.Generator, sol model.CommitmentSolution) model.CommitmentSolution {
	if err := o.form.Verify(sc, gens, sol, o.tol); err != nil {
		o.log.Errorf("scenario %s: solver returned an inconsistent optimum: %v", sc.ID, err)
		return model.CommitmentSolution{
			ScenarioID: sc.ID,
			Status:     model.StatusSolverError,
			Nodes:      sol.Nodes,
			Reason:     fmt.Sprintf("verification failed: %v", err),
		}
	}
	sol.Objective = o.form.Cost(gens, sol)
	return sol
}

func (o *Optimizer) applyHint(m *milp.Model, vars variables, hint [][]int) {
	for i := range hint {
		prev := int(o.form.initial(i))
		for t, s := range hint[i] {
			if s > 0 {
				s = 1
			} else {
				s = 0
			}
			m.SetStart(vars.status[i][t], float64(s))
			if vars.startup != nil {
				m.SetStart(vars.startup[i][t], float64(max(0, s-prev)))
			}
			prev = s
		}
	}
}

// toSolution maps the solver result onto a CommitmentSolution. Unbounded,
// errored and timed out solves all become StatusSolverError.
func (o *Optimizer) toSolution(sc model.Scenario, gens []model.Generator, vars variables, res milp.Result) model.CommitmentSolution {
	sol := model.CommitmentSolution{ScenarioID: sc.ID, Nodes: res.Nodes}
	switch res.Status {
	case milp.Optimal:
	case milp.Infeasible:
		sol.Status = model.StatusInfeasible
		sol.Reason = "no commitment satisfies demand net of renewables"
		return sol
	default:
		sol.Status = model.StatusSolverError
		sol.Reason = res.Status.String()
		if res.Err != nil {
			sol.Reason = fmt.Sprintf("%s: %v", res.Status, res.Err)
		}
		return sol
	}

	sol.Units = make([][]model.UnitPeriod, len(gens))
	for i, g := range gens {
		sol.Units[i] = make([]model.UnitPeriod, sc.Horizon())
		for t := range sol.Units[i] {
			up := model.UnitPeriod{}
			if res.X[vars.status[i][t]] > 0.5 {
				up.Status = 1
				up.Dispatch = math.Min(math.Max(res.X[vars.dispatch[i][t]], g.PMin), g.PMax)
			}
			sol.Units[i][t] = up
		}
	}
	sol.Status = model.StatusOptimal
	return sol
}
