package corpus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ucommit/core/commitment"
	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
	"github.com/kilianp07/ucommit/core/scenario"
)

func fleet() []model.Generator {
	return []model.Generator{
		{CostPerUnit: 20, StartupCost: 100, PMin: 20, PMax: 100},
		{CostPerUnit: 25, StartupCost: 100, PMin: 10, PMax: 80},
		{CostPerUnit: 30, StartupCost: 100, PMin: 10, PMax: 60},
	}
}

// scriptedSolver returns a status chosen by scenario id and commits every
// unit when optimal.
type scriptedSolver struct {
	status map[string]model.Status
	calls  atomic.Int32
}

func (s *scriptedSolver) Solve(_ context.Context, sc model.Scenario, gens []model.Generator) (model.CommitmentSolution, error) {
	s.calls.Add(1)
	st := s.status[sc.ID]
	sol := model.CommitmentSolution{ScenarioID: sc.ID, Status: st}
	if st != model.StatusOptimal {
		sol.Reason = st.String()
		return sol, nil
	}
	sol.Units = make([][]model.UnitPeriod, len(gens))
	for i := range gens {
		sol.Units[i] = make([]model.UnitPeriod, sc.Horizon())
		for t := range sol.Units[i] {
			sol.Units[i][t] = model.UnitPeriod{Status: 1, Dispatch: 1}
		}
	}
	return sol, nil
}

func TestBuilder_CountsExcludedScenarios(t *testing.T) {
	scs := scenario.Generate(10, 4, scenario.Range{Low: 50, High: 100}, scenario.Range{High: 20}, 3)
	solver := &scriptedSolver{status: map[string]model.Status{
		scs[2].ID: model.StatusInfeasible,
		scs[5].ID: model.StatusSolverError,
		scs[7].ID: model.StatusInfeasible,
	}}
	sink := &corpusSink{}
	b, err := NewBuilder(solver, Config{Workers: 3}, nil, sink, "run-1")
	require.NoError(t, err)

	c, err := b.Build(context.Background(), scs, fleet())
	require.NoError(t, err)
	assert.EqualValues(t, 10, solver.calls.Load())
	assert.Equal(t, Summary{
		Scenarios:    10,
		Optimal:      7,
		Infeasible:   2,
		SolverErrors: 1,
		Samples:      28,
		Failures: []Failure{
			{ScenarioID: scs[2].ID, Status: model.StatusInfeasible, Reason: "infeasible"},
			{ScenarioID: scs[5].ID, Status: model.StatusSolverError, Reason: "solver_error"},
			{ScenarioID: scs[7].ID, Status: model.StatusInfeasible, Reason: "infeasible"},
		},
	}, c.Summary)
	assert.Len(t, c.Samples, 28)
	assert.Len(t, c.Solved, 7)
	assert.Len(t, c.Train, 22)
	assert.Len(t, c.Test, 6)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "run-1", sink.events[0].RunID)
	assert.Equal(t, 2, sink.events[0].Infeasible)
}

func TestBuilder_SamplesFollowScenarioOrder(t *testing.T) {
	scs := scenario.Generate(3, 2, scenario.Range{Low: 50, High: 100}, scenario.Range{High: 20}, 11)
	solver := &scriptedSolver{}
	b, err := NewBuilder(solver, Config{Workers: 8}, nil, nil, "")
	require.NoError(t, err)
	c, err := b.Build(context.Background(), scs, fleet())
	require.NoError(t, err)
	k := 0
	for _, sc := range scs {
		for _, p := range sc.Periods {
			assert.Equal(t, [2]float64{p.Demand, p.Renewable}, c.Samples[k].Features)
			k++
		}
	}
}

func TestBuilder_WithOptimizer(t *testing.T) {
	opt, err := commitment.New(commitment.Config{})
	require.NoError(t, err)
	scs := scenario.Generate(12, 3, scenario.Range{Low: 60, High: 200}, scenario.Range{High: 40}, 5)
	b, err := NewBuilder(opt, Config{Workers: 4, SplitSeed: 1}, nil, nil, "")
	require.NoError(t, err)

	c, err := b.Build(context.Background(), scs, fleet())
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, 12, c.Summary.Optimal+c.Summary.Infeasible+c.Summary.SolverErrors)
	assert.Equal(t, 3*c.Summary.Optimal, len(c.Samples))
	for _, s := range c.Samples {
		assert.Len(t, s.Labels, 3)
	}
	for _, sv := range c.Solved {
		for tt, p := range sv.Scenario.Periods {
			assert.InDelta(t, p.Demand, sv.Solution.TotalDispatch(tt)+p.Renewable, 1e-6)
		}
	}
}

func TestBuilder_InvalidInputFailsFast(t *testing.T) {
	solver := &scriptedSolver{}
	b, err := NewBuilder(solver, Config{}, nil, nil, "")
	require.NoError(t, err)
	scs := scenario.Generate(2, 2, scenario.Range{Low: 50, High: 100}, scenario.Range{High: 20}, 1)

	_, err = b.Build(context.Background(), scs, []model.Generator{{PMin: 5, PMax: 1}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	bad := append(scs, model.Scenario{ID: "empty"})
	_, err = b.Build(context.Background(), bad, fleet())
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Zero(t, solver.calls.Load())
}

type failingSolver struct{}

func (failingSolver) Solve(context.Context, model.Scenario, []model.Generator) (model.CommitmentSolution, error) {
	return model.CommitmentSolution{}, errors.New("broken")
}

func TestBuilder_PropagatesUnexpectedErrors(t *testing.T) {
	b, err := NewBuilder(failingSolver{}, Config{}, nil, nil, "")
	require.NoError(t, err)
	scs := scenario.Generate(2, 2, scenario.Range{Low: 50, High: 100}, scenario.Range{High: 20}, 1)
	_, err = b.Build(context.Background(), scs, fleet())
	assert.Error(t, err)
}

func TestBuilder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b, err := NewBuilder(&scriptedSolver{}, Config{Workers: 1}, nil, nil, "")
	require.NoError(t, err)
	scs := scenario.Generate(4, 2, scenario.Range{Low: 50, High: 100}, scenario.Range{High: 20}, 1)
	_, err = b.Build(ctx, scs, fleet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilder_RejectsBadRatio(t *testing.T) {
	_, err := NewBuilder(&scriptedSolver{}, Config{TrainRatio: 1.5}, nil, nil, "")
	assert.Error(t, err)
}

type corpusSink struct {
	metrics.NopSink
	events []metrics.CorpusEvent
}

func (c *corpusSink) RecordCorpus(ev metrics.CorpusEvent) error {
	c.events = append(c.events, ev)
	return nil
}
