package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Validate(t *testing.T) {
	ok := Generator{CostPerUnit: 20, StartupCost: 100, PMin: 20, PMax: 100}
	require.NoError(t, ok.Validate())

	cases := map[string]Generator{
		"negative capacity": {PMin: -1, PMax: 10},
		"pmin above pmax":   {PMin: 20, PMax: 10},
		"negative cost":     {CostPerUnit: -1, PMax: 10},
		"nan":               {CostPerUnit: math.NaN(), PMax: 10},
		"negative min up":   {PMax: 10, MinUpTime: -1},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, g.Validate(), ErrInvalidInput)
		})
	}

	assert.ErrorIs(t, ValidateGenerators(nil), ErrInvalidInput)
	err := ValidateGenerators([]Generator{ok, {PMin: 5, PMax: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "generator 1")
	assert.Equal(t, 200.0, TotalCapacity([]Generator{ok, ok}))
}

func TestNewScenario(t *testing.T) {
	sc, err := NewScenario("s", []float64{90, 10}, []float64{20, 30})
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Horizon())
	assert.Equal(t, 70.0, sc.Periods[0].NetLoad())
	assert.Equal(t, -20.0, sc.Periods[1].NetLoad())

	_, err = NewScenario("s", []float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewScenario("s", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewScenario("s", []float64{-1}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewScenario("s", []float64{math.Inf(1)}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "optimal", StatusOptimal.String())
	assert.Equal(t, "solver_error", StatusSolverError.String())
	assert.NoError(t, StatusOptimal.Err())
	assert.ErrorIs(t, StatusInfeasible.Err(), ErrInfeasible)
	assert.ErrorIs(t, StatusSolverError.Err(), ErrSolver)
}

func TestSolutionAccessors(t *testing.T) {
	sol := CommitmentSolution{Status: StatusOptimal, Units: [][]UnitPeriod{
		{{Status: 1, Dispatch: 60}, {Status: 1, Dispatch: 100}},
		{{}, {Status: 1, Dispatch: 40}},
	}}
	assert.Equal(t, []int{1, 0}, sol.StatusVector(0))
	assert.Equal(t, 140.0, sol.TotalDispatch(1))

	s := NewSample(Period{Demand: 150, Renewable: 10}, sol, 1)
	assert.Equal(t, [2]float64{150, 10}, s.Features)
	assert.Equal(t, []int{1, 1}, s.Labels)
}

func TestStageError(t *testing.T) {
	assert.NoError(t, WrapStage(StageSolve, nil))
	err := WrapStage(StageTraining, ErrDataStarvation)
	assert.EqualError(t, err, "training: data starvation")
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageTraining, se.Stage)
	assert.ErrorIs(t, err, ErrDataStarvation)
}
