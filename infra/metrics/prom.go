package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ucommit/core/metrics"
)

// PromSink records solver and learning events in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	nodes     prometheus.Histogram
	scenarios *prometheus.GaugeVec
	samples   *prometheus.GaugeVec
	accuracy  *prometheus.GaugeVec
	baseRate  *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ucommit_solves_total",
		Help: "Total number of unit-commitment solves by status",
	}, []string{"status", "warm_start"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ucommit_solve_duration_seconds",
		Help:    "Wall time of a unit-commitment solve",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ucommit_solve_nodes",
		Help:    "Branch-and-bound nodes explored per solve",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})); err != nil {
		return nil, err
	}
	if s.scenarios, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_corpus_scenarios",
		Help: "Scenarios of the last corpus build by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.samples, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_corpus_samples",
		Help: "Samples of the last corpus build by split",
	}, []string{"split"})); err != nil {
		return nil, err
	}
	if s.accuracy, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_classifier_accuracy",
		Help: "Held-out accuracy of each generator classifier",
	}, []string{"generator"})); err != nil {
		return nil, err
	}
	if s.baseRate, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ucommit_classifier_base_rate",
		Help: "Fraction of held-out samples where the generator is committed",
	}, []string{"generator"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when an identical one
// exists, so several sinks can share a registerer.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// RecordSolve counts the solve and observes its duration and node count.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	status := ev.Status.String()
	s.solves.WithLabelValues(status, strconv.FormatBool(ev.WarmStart)).Inc()
	s.duration.WithLabelValues(status).Observe(ev.Duration.Seconds())
	s.nodes.Observe(float64(ev.Nodes))
	return nil
}

// RecordCorpus sets the corpus gauges.
func (s *PromSink) RecordCorpus(ev coremetrics.CorpusEvent) error {
	s.scenarios.WithLabelValues("optimal").Set(float64(ev.Optimal))
	s.scenarios.WithLabelValues("infeasible").Set(float64(ev.Infeasible))
	s.scenarios.WithLabelValues("solver_error").Set(float64(ev.SolverErrors))
	s.samples.WithLabelValues("all").Set(float64(ev.Samples))
	s.samples.WithLabelValues("train").Set(float64(ev.Train))
	s.samples.WithLabelValues("test").Set(float64(ev.Test))
	return nil
}

// RecordAccuracy sets the per-generator accuracy and base-rate gauges.
func (s *PromSink) RecordAccuracy(evs []coremetrics.AccuracyEvent) error {
	for _, ev := range evs {
		g := strconv.Itoa(ev.Generator)
		s.accuracy.WithLabelValues(g).Set(ev.Accuracy)
		s.baseRate.WithLabelValues(g).Set(ev.BaseRate)
	}
	return nil
}
