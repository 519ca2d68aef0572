package evaluate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ucommit/core/classifier"
	"github.com/kilianp07/ucommit/core/commitment"
	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
)

var fleet = []model.Generator{
	{CostPerUnit: 20, StartupCost: 100, PMin: 20, PMax: 100},
	{CostPerUnit: 25, StartupCost: 100, PMin: 10, PMax: 80},
	{CostPerUnit: 30, StartupCost: 100, PMin: 10, PMax: 60},
}

type fixedPredictor struct {
	pred [][]int
	err  error
}

func (f fixedPredictor) Generators() int { return len(fleet) }

func (f fixedPredictor) PredictSamples([]model.FeatureLabelSample) ([][]int, error) {
	return f.pred, f.err
}

func sample(d, r float64, labels ...int) model.FeatureLabelSample {
	return model.FeatureLabelSample{Features: [2]float64{d, r}, Labels: labels}
}

func TestEvaluate_PerGeneratorScores(t *testing.T) {
	test := []model.FeatureLabelSample{
		sample(90, 20, 1, 0, 0),
		sample(190, 10, 1, 1, 0),
		sample(200, 0, 1, 1, 1),
		sample(60, 10, 1, 0, 0),
	}
	p := fixedPredictor{pred: [][]int{
		{1, 0, 0},
		{1, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	}}
	r, err := Evaluate(p, test, fleet)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Samples)
	assert.Equal(t, []float64{0.75, 1, 0.5}, r.Accuracies())
	assert.Equal(t, 1.0, r.Generators[0].BaseRate)
	assert.Equal(t, 0.5, r.Generators[1].BaseRate)
	assert.Equal(t, 0.25, r.Generators[2].BaseRate)
	assert.Equal(t, Confusion{TrueNegative: 2, FalsePositive: 1, FalseNegative: 1}, r.Generators[2].Confusion)
	assert.Equal(t, Confusion{TruePositive: 3, FalseNegative: 1}, r.Generators[0].Confusion)
	assert.Equal(t, 0.25, r.ExactMatch)
	// 200 MW with 180 MW committed, and 50 MW with nothing committed.
	assert.Equal(t, 0.5, r.Infeasible)
}

func TestEvaluate_Rejects(t *testing.T) {
	_, err := Evaluate(fixedPredictor{}, nil, fleet)
	assert.ErrorIs(t, err, model.ErrDataStarvation)

	_, err = Evaluate(fixedPredictor{}, []model.FeatureLabelSample{sample(1, 0, 1)}, fleet)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = Evaluate(fixedPredictor{}, []model.FeatureLabelSample{sample(1, 0)}, fleet[:2])
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	boom := errors.New("boom")
	_, err = Evaluate(fixedPredictor{err: boom}, []model.FeatureLabelSample{sample(1, 0, 1, 0, 0)}, fleet)
	assert.ErrorIs(t, err, boom)
}

func TestFeasible(t *testing.T) {
	assert.True(t, Feasible([]int{1, 0, 0}, fleet, 70))
	assert.True(t, Feasible([]int{1, 0, 0}, fleet, 20))
	assert.False(t, Feasible([]int{1, 0, 0}, fleet, 19))
	assert.False(t, Feasible([]int{1, 0, 0}, fleet, 101))
	assert.True(t, Feasible([]int{0, 0, 0}, fleet, 0))
	assert.False(t, Feasible([]int{0, 0, 0}, fleet, -5))
}

type accuracySink struct {
	metrics.NopSink
	got []metrics.AccuracyEvent
}

func (s *accuracySink) RecordAccuracy(evs []metrics.AccuracyEvent) error {
	s.got = append(s.got, evs...)
	return nil
}

func TestRecord(t *testing.T) {
	r := Report{Samples: 7, Generators: []GeneratorScore{{Generator: 0, Accuracy: 1, BaseRate: 1}, {Generator: 1, Accuracy: 0.5, BaseRate: 0.2}}}
	sink := &accuracySink{}
	require.NoError(t, Record(sink, "run", r))
	require.Len(t, sink.got, 2)
	assert.Equal(t, "run", sink.got[1].RunID)
	assert.Equal(t, 0.5, sink.got[1].Accuracy)
	assert.Equal(t, 7, sink.got[1].Samples)

	assert.NoError(t, Record(struct{ metrics.MetricsSink }{}, "run", r))
}

func TestEvaluate_AlwaysCommittedUnitScoresOne(t *testing.T) {
	var train, test []model.FeatureLabelSample
	for n := 0; n < 60; n++ {
		d := 50 + float64(n*5%150)
		s := sample(d, float64(n%40), 1, 0, 0)
		if n%5 == 0 {
			test = append(test, s)
		} else {
			train = append(train, s)
		}
	}
	e, err := classifier.Train(context.Background(), classifier.Config{}, train, len(fleet), nil)
	require.NoError(t, err)
	r, err := Evaluate(e, test, fleet)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Generators[0].Accuracy)
}

type hintPredictor struct{ hint [][]int }

func (h hintPredictor) PredictScenario(model.Scenario) ([][]int, error) { return h.hint, nil }

func TestCompareWarmStart_KeepsObjective(t *testing.T) {
	opt, err := commitment.New(commitment.Config{})
	require.NoError(t, err)
	sc, err := model.NewScenario("a", []float64{90, 150}, []float64{20, 10})
	require.NoError(t, err)
	bad, err := model.NewScenario("b", []float64{300}, []float64{0})
	require.NoError(t, err)

	cold, err := opt.Solve(context.Background(), sc, fleet)
	require.NoError(t, err)
	require.Equal(t, model.StatusOptimal, cold.Status)
	perfect := make([][]int, len(fleet))
	for i := range perfect {
		perfect[i] = []int{cold.At(i, 0).Status, cold.At(i, 1).Status}
	}

	r, err := CompareWarmStart(context.Background(), opt, hintPredictor{hint: perfect}, []model.Scenario{sc, bad}, fleet, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Scenarios)
	assert.Equal(t, 1, r.Compared)
	assert.Zero(t, r.Mismatches)
	assert.Equal(t, 1.0, r.HintAgreement)
	assert.Positive(t, r.WarmNodes)
}

func TestCompareWarmStart_Cancelled(t *testing.T) {
	opt, err := commitment.New(commitment.Config{})
	require.NoError(t, err)
	sc, err := model.NewScenario("a", []float64{90}, []float64{20})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CompareWarmStart(ctx, opt, hintPredictor{}, []model.Scenario{sc}, fleet, 1e-9)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWarmStartReport_NodeReduction(t *testing.T) {
	assert.Equal(t, 0.0, WarmStartReport{}.NodeReduction())
	assert.InDelta(t, 0.75, WarmStartReport{ColdNodes: 8, WarmNodes: 2}.NodeReduction(), 1e-12)
}
