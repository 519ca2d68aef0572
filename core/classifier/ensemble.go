package classifier

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/ucommit/core/factory"
	"github.com/kilianp07/ucommit/core/logger"
	"github.com/kilianp07/ucommit/core/model"
)

// Config selects the classifier used for every generator.
type Config struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
	// MinTrainSamples is the smallest training split accepted.
	MinTrainSamples int `json:"min_train_samples"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "tree"
	}
	if c.MinTrainSamples <= 0 {
		c.MinTrainSamples = 10
	}
}

// Module returns the factory configuration of the classifier.
func (c Config) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}

// Validate checks the classifier type is registered.
func (c Config) Validate() error {
	for _, k := range Kinds() {
		if k == c.Type {
			return nil
		}
	}
	return fmt.Errorf("unknown classifier type %q (known: %v)", c.Type, Kinds())
}

// Ensemble holds one fitted classifier per generator. It is immutable after
// Train and safe for concurrent prediction.
type Ensemble struct {
	models []Classifier
}

// Train fits one classifier per generator on that generator's label column.
// It reports model.ErrDataStarvation when the training split is smaller than
// cfg.MinTrainSamples.
func Train(ctx context.Context, cfg Config, train []model.FeatureLabelSample, generators int, log logger.Logger) (*Ensemble, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if generators <= 0 {
		return nil, fmt.Errorf("%w: no generators", model.ErrInvalidInput)
	}
	if len(train) < cfg.MinTrainSamples {
		return nil, fmt.Errorf("%w: %d training samples, need at least %d",
			model.ErrDataStarvation, len(train), cfg.MinTrainSamples)
	}
	for n, s := range train {
		if len(s.Labels) != generators {
			return nil, fmt.Errorf("%w: sample %d has %d labels, want %d",
				model.ErrInvalidInput, n, len(s.Labels), generators)
		}
	}

	X := Features(train)
	e := &Ensemble{models: make([]Classifier, generators)}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < generators; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := New(cfg.Module())
			if err != nil {
				return err
			}
			y := Labels(train, i)
			if err := c.Fit(X, y); err != nil {
				return fmt.Errorf("generator %d: %w", i, err)
			}
			e.models[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Infof("trained %d %s classifiers on %d samples", generators, cfg.Type, len(train))
	return e, nil
}

// Generators returns the number of classifiers.
func (e *Ensemble) Generators() int { return len(e.models) }

// Predict returns the predicted status of every generator for one feature
// vector (demand, renewable).
func (e *Ensemble) Predict(features [2]float64) ([]int, error) {
	X := mat.NewDense(1, 2, []float64{features[0], features[1]})
	out := make([]int, len(e.models))
	for i, m := range e.models {
		p, err := m.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
		out[i] = p[0]
	}
	return out, nil
}

// PredictSamples predicts every sample, returning [sample][generator].
func (e *Ensemble) PredictSamples(samples []model.FeatureLabelSample) ([][]int, error) {
	out := make([][]int, len(samples))
	for n := range out {
		out[n] = make([]int, len(e.models))
	}
	if len(samples) == 0 {
		return out, nil
	}
	X := Features(samples)
	for i, m := range e.models {
		p, err := m.Predict(X)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
		for n, v := range p {
			out[n][i] = v
		}
	}
	return out, nil
}

// PredictScenario predicts a commitment for every period, indexed
// [generator][period], suitable as an optimizer hint.
func (e *Ensemble) PredictScenario(sc model.Scenario) ([][]int, error) {
	samples := make([]model.FeatureLabelSample, sc.Horizon())
	for t, p := range sc.Periods {
		samples[t].Features = [2]float64{p.Demand, p.Renewable}
	}
	pred, err := e.PredictSamples(samples)
	if err != nil {
		return nil, err
	}
	hint := make([][]int, len(e.models))
	for i := range hint {
		hint[i] = make([]int, sc.Horizon())
		for t := range pred {
			hint[i][t] = pred[t][i]
		}
	}
	return hint, nil
}

// Features builds the (demand, renewable) matrix of the samples.
func Features(samples []model.FeatureLabelSample) *mat.Dense {
	data := make([]float64, 0, 2*len(samples))
	for _, s := range samples {
		data = append(data, s.Features[0], s.Features[1])
	}
	return mat.NewDense(len(samples), 2, data)
}

// Labels extracts the label column of generator i.
func Labels(samples []model.FeatureLabelSample, i int) []int {
	y := make([]int, len(samples))
	for n, s := range samples {
		y[n] = s.Labels[i]
	}
	return y
}
