package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ucommit/config"
	"github.com/kilianp07/ucommit/core/classifier"
	"github.com/kilianp07/ucommit/core/commitment"
	"github.com/kilianp07/ucommit/core/corpus"
	"github.com/kilianp07/ucommit/core/evaluate"
	coremetrics "github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
	"github.com/kilianp07/ucommit/core/scenario"
	"github.com/kilianp07/ucommit/infra/logger"
	"github.com/kilianp07/ucommit/infra/metrics"
)

// Service wires the scenario generator, optimizer, corpus builder,
// classifiers and evaluator from a configuration.
type Service struct {
	Optimizer *commitment.Optimizer
	Generator *scenario.Generator

	cfg  *config.Config
	sink coremetrics.MetricsSink
	log  logger.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithSink overrides the sinks built from the configuration.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{cfg: cfg, log: logger.New("service")}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	gen, err := scenario.New(cfg.Scenario)
	if err != nil {
		return nil, model.WrapStage(model.StageGeneration, err)
	}
	opt, err := commitment.New(cfg.Solver,
		commitment.WithLogger(logger.New("optimizer")),
		commitment.WithSink(svc.sink),
	)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	svc.Optimizer = opt
	svc.Generator = gen
	return svc, nil
}

// ServeMetrics exposes Prometheus metrics in the background until ctx is
// cancelled, when an address is configured.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Generate draws the configured scenarios and summarises them.
func (s *Service) Generate() ([]model.Scenario, scenario.Stats) {
	scs := s.Generator.Generate()
	return scs, scenario.Summarize(scs, model.TotalCapacity(s.cfg.Generators))
}

// SolveOne solves the pinned scenario, or the first generated one.
func (s *Service) SolveOne(ctx context.Context) (model.Scenario, model.CommitmentSolution, error) {
	sc, ok, err := s.cfg.Scenario.Fixed()
	if err != nil {
		return sc, model.Rejected(sc.ID, err), model.WrapStage(model.StageGeneration, err)
	}
	if !ok {
		scs := s.Generator.Generate()
		if len(scs) == 0 {
			err := fmt.Errorf("%w: no scenario configured", model.ErrInvalidInput)
			return sc, model.Rejected(sc.ID, err), model.WrapStage(model.StageGeneration, err)
		}
		sc = scs[0]
	}
	sol, err := s.Optimizer.Solve(ctx, sc, s.cfg.Generators)
	if err != nil {
		return sc, sol, model.WrapStage(model.StageSolve, err)
	}
	return sc, sol, nil
}

// Report is the outcome of a training run.
type Report struct {
	RunID      string
	Summary    corpus.Summary
	Train      int
	Test       int
	Evaluation evaluate.Report
	WarmStart  evaluate.WarmStartReport
	Duration   time.Duration
}

// Train runs generation, corpus building, training and evaluation. Errors
// are StageErrors naming the failing step.
func (s *Service) Train(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	gens := s.cfg.Generators

	scs := s.Generator.Generate()
	if len(scs) == 0 {
		return nil, model.WrapStage(model.StageGeneration,
			fmt.Errorf("%w: num_samples is zero", model.ErrDataStarvation))
	}
	s.log.Infof("run %s: generated %d scenarios of %d periods", runID, len(scs), s.cfg.Scenario.TimePeriods)

	b, err := corpus.NewBuilder(s.Optimizer, s.cfg.Corpus, logger.New("corpus"), s.sink, runID)
	if err != nil {
		return nil, model.WrapStage(model.StageSolve, err)
	}
	c, err := b.Build(ctx, scs, gens)
	if err != nil {
		return nil, model.WrapStage(model.StageSolve, err)
	}

	ens, err := classifier.Train(ctx, s.cfg.Classifier, c.Train, len(gens), logger.New("classifier"))
	if err != nil {
		return nil, model.WrapStage(model.StageTraining, err)
	}

	ev, err := evaluate.Evaluate(ens, c.Test, gens)
	if err != nil {
		return nil, model.WrapStage(model.StageEvaluation, err)
	}
	if err := evaluate.Record(s.sink, runID, ev); err != nil {
		s.log.Warnf("record accuracy: %v", err)
	}
	for _, g := range ev.Generators {
		s.log.Infof("run %s: generator %d accuracy=%.4f base_rate=%.4f", runID, g.Generator, g.Accuracy, g.BaseRate)
	}

	ws, err := evaluate.CompareWarmStart(ctx, s.Optimizer, ens, s.Generator.HoldOut(), gens, s.cfg.Solver.VerifyTolerance)
	if err != nil {
		return nil, model.WrapStage(model.StageEvaluation, err)
	}
	if ws.Mismatches > 0 {
		s.log.Errorf("run %s: %d warm-started solves changed the objective", runID, ws.Mismatches)
	}

	return &Report{
		RunID:      runID,
		Summary:    c.Summary,
		Train:      len(c.Train),
		Test:       len(c.Test),
		Evaluation: ev,
		WarmStart:  ws,
		Duration:   time.Since(start),
	}, nil
}
