// Package evaluate scores the commitment classifiers against the optimizer's
// ground truth.
package evaluate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
)

// feasTol is the slack allowed when checking a predicted commitment against
// net load.
const feasTol = 1e-6

// Predictor predicts the status of every generator for a batch of samples.
type Predictor interface {
	Generators() int
	PredictSamples(samples []model.FeatureLabelSample) ([][]int, error)
}

// Confusion counts predictions against labels for one generator.
type Confusion struct {
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int
}

// Total is the number of scored predictions.
func (c Confusion) Total() int {
	return c.TruePositive + c.TrueNegative + c.FalsePositive + c.FalseNegative
}

// Accuracy is the fraction of matching predictions.
func (c Confusion) Accuracy() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.TruePositive+c.TrueNegative) / float64(c.Total())
}

func (c *Confusion) add(pred, label int) {
	switch {
	case pred == 1 && label == 1:
		c.TruePositive++
	case pred == 0 && label == 0:
		c.TrueNegative++
	case pred == 1:
		c.FalsePositive++
	default:
		c.FalseNegative++
	}
}

// GeneratorScore is the evaluation of one generator classifier. BaseRate is
// the fraction of samples where the generator is committed, the accuracy of
// a classifier that always predicts the majority class being
// max(BaseRate, 1-BaseRate).
type GeneratorScore struct {
	Generator int
	Accuracy  float64
	BaseRate  float64
	Confusion
}

// Report is the result of Evaluate.
type Report struct {
	Samples    int
	Generators []GeneratorScore
	// ExactMatch is the fraction of samples whose whole commitment vector
	// was predicted correctly.
	ExactMatch float64
	// Infeasible is the fraction of predicted vectors whose committed units
	// cannot meet net load: too little capacity or too much must-run output.
	Infeasible float64
}

// Accuracies returns the accuracy of every generator, by index.
func (r Report) Accuracies() []float64 {
	out := make([]float64, len(r.Generators))
	for i, g := range r.Generators {
		out[i] = g.Accuracy
	}
	return out
}

// Events converts the report to accuracy events.
func (r Report) Events(runID string, at time.Time) []metrics.AccuracyEvent {
	evs := make([]metrics.AccuracyEvent, len(r.Generators))
	for i, g := range r.Generators {
		evs[i] = metrics.AccuracyEvent{
			RunID:     runID,
			Generator: g.Generator,
			Accuracy:  g.Accuracy,
			BaseRate:  g.BaseRate,
			Samples:   r.Samples,
			Time:      at,
		}
	}
	return evs
}

// Evaluate predicts every test sample and scores each generator separately.
// gens must be the fleet the predictor was trained for.
func Evaluate(p Predictor, test []model.FeatureLabelSample, gens []model.Generator) (Report, error) {
	if len(test) == 0 {
		return Report{}, fmt.Errorf("%w: empty test split", model.ErrDataStarvation)
	}
	if p.Generators() != len(gens) {
		return Report{}, fmt.Errorf("%w: predictor has %d generators, fleet has %d",
			model.ErrInvalidInput, p.Generators(), len(gens))
	}
	for n, s := range test {
		if len(s.Labels) != len(gens) {
			return Report{}, fmt.Errorf("%w: sample %d has %d labels, want %d",
				model.ErrInvalidInput, n, len(s.Labels), len(gens))
		}
	}
	pred, err := p.PredictSamples(test)
	if err != nil {
		return Report{}, err
	}

	conf := make([]Confusion, len(gens))
	cols := make([][]float64, len(gens))
	for i := range cols {
		cols[i] = make([]float64, len(test))
	}
	exact, infeasible := 0, 0
	for n, s := range test {
		match := true
		for i, l := range s.Labels {
			conf[i].add(pred[n][i], l)
			cols[i][n] = float64(l)
			if pred[n][i] != l {
				match = false
			}
		}
		if match {
			exact++
		}
		net := s.Features[0] - s.Features[1]
		if !Feasible(pred[n], gens, net) {
			infeasible++
		}
	}

	r := Report{
		Samples:    len(test),
		Generators: make([]GeneratorScore, len(gens)),
		ExactMatch: float64(exact) / float64(len(test)),
		Infeasible: float64(infeasible) / float64(len(test)),
	}
	for i := range gens {
		r.Generators[i] = GeneratorScore{
			Generator: i,
			Accuracy:  conf[i].Accuracy(),
			BaseRate:  stat.Mean(cols[i], nil),
			Confusion: conf[i],
		}
	}
	return r, nil
}

// Feasible reports whether the committed units can exactly meet net load
// within their output limits.
func Feasible(status []int, gens []model.Generator, net float64) bool {
	var lo, hi float64
	for i, s := range status {
		if s == 1 {
			lo += gens[i].PMin
			hi += gens[i].PMax
		}
	}
	return hi+feasTol >= net && lo-feasTol <= net
}

// Record sends the report to sink when it records accuracy.
func Record(sink metrics.MetricsSink, runID string, r Report) error {
	rec, ok := sink.(metrics.AccuracyRecorder)
	if !ok {
		return nil
	}
	return rec.RecordAccuracy(r.Events(runID, time.Now()))
}
