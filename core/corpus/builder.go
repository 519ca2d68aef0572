package corpus

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/ucommit/core/logger"
	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
)

// Solver is the optimizer capability needed to label scenarios.
type Solver interface {
	Solve(ctx context.Context, sc model.Scenario, gens []model.Generator) (model.CommitmentSolution, error)
}

// Config defines corpus build settings.
type Config struct {
	Workers    int     `json:"workers"`
	TrainRatio float64 `json:"train_ratio"`
	SplitSeed  uint64  `json:"split_seed"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.TrainRatio == 0 {
		c.TrainRatio = 0.8
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return fmt.Errorf("train_ratio must be in (0, 1), got %g", c.TrainRatio)
	}
	return nil
}

// Builder solves scenarios concurrently and assembles a Corpus.
type Builder struct {
	solver Solver
	cfg    Config
	log    logger.Logger
	sink   metrics.MetricsSink
	runID  string
}

// NewBuilder creates a Builder. A nil logger or sink disables the feature.
func NewBuilder(solver Solver, cfg Config, log logger.Logger, sink metrics.MetricsSink, runID string) (*Builder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Builder{solver: solver, cfg: cfg, log: log, sink: sink, runID: runID}, nil
}

// Build solves every scenario and emits one sample per period of each
// optimal solution. Infeasible and errored scenarios are excluded and counted
// in the summary; they never abort the batch. Invalid input aborts before
// any solve.
func (b *Builder) Build(ctx context.Context, scenarios []model.Scenario, gens []model.Generator) (*Corpus, error) {
	if err := model.ValidateGenerators(gens); err != nil {
		return nil, err
	}
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	results := make([]model.CommitmentSolution, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for n := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sol, err := b.solver.Solve(gctx, scenarios[n], gens)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", scenarios[n].ID, err)
			}
			results[n] = sol
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Corpus{Generators: len(gens)}
	c.Summary.Scenarios = len(scenarios)
	for n, sol := range results {
		sc := scenarios[n]
		switch sol.Status {
		case model.StatusOptimal:
			c.Summary.Optimal++
			c.Solved = append(c.Solved, Solved{Scenario: sc, Solution: sol})
			for t, p := range sc.Periods {
				c.Samples = append(c.Samples, model.NewSample(p, sol, t))
			}
			continue
		case model.StatusInfeasible:
			c.Summary.Infeasible++
		default:
			c.Summary.SolverErrors++
		}
		c.Summary.Failures = append(c.Summary.Failures, Failure{ScenarioID: sc.ID, Status: sol.Status, Reason: sol.Reason})
	}
	c.Summary.Samples = len(c.Samples)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Train, c.Test = Split(c.Samples, b.cfg.TrainRatio, b.cfg.SplitSeed)

	if c.Summary.Infeasible+c.Summary.SolverErrors > 0 {
		b.log.Warnf("corpus %s: excluded %d infeasible and %d errored scenarios out of %d",
			b.runID, c.Summary.Infeasible, c.Summary.SolverErrors, c.Summary.Scenarios)
	}
	b.log.Infof("corpus %s: %d samples from %d optimal scenarios (train=%d test=%d) in %s",
		b.runID, len(c.Samples), c.Summary.Optimal, len(c.Train), len(c.Test), time.Since(start))
	if rec, ok := b.sink.(metrics.CorpusRecorder); ok {
		if err := rec.RecordCorpus(metrics.CorpusEvent{
			RunID:        b.runID,
			Scenarios:    c.Summary.Scenarios,
			Optimal:      c.Summary.Optimal,
			Infeasible:   c.Summary.Infeasible,
			SolverErrors: c.Summary.SolverErrors,
			Samples:      len(c.Samples),
			Train:        len(c.Train),
			Test:         len(c.Test),
			Duration:     time.Since(start),
			Time:         time.Now(),
		}); err != nil {
			b.log.Warnf("record corpus: %v", err)
		}
	}
	return c, nil
}
