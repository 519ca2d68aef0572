package metrics

import (
	"time"

	"github.com/kilianp07/ucommit/core/model"
)

// SolveEvent describes one optimizer invocation.
type SolveEvent struct {
	ScenarioID string
	Status     model.Status
	Objective  float64
	Nodes      int
	Duration   time.Duration
	WarmStart  bool
	Time       time.Time
}

// MetricsSink records solve outcomes for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// CorpusEvent summarises a corpus build.
type CorpusEvent struct {
	RunID        string
	Scenarios    int
	Optimal      int
	Infeasible   int
	SolverErrors int
	Samples      int
	Train        int
	Test         int
	Duration     time.Duration
	Time         time.Time
}

// CorpusRecorder records corpus build summaries.
type CorpusRecorder interface {
	RecordCorpus(ev CorpusEvent) error
}

// AccuracyEvent is the evaluation score of one generator classifier.
type AccuracyEvent struct {
	RunID     string
	Generator int
	Accuracy  float64
	BaseRate  float64
	Samples   int
	Time      time.Time
}

// AccuracyRecorder records per-generator evaluation scores.
type AccuracyRecorder interface {
	RecordAccuracy(evs []AccuracyEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error         { return nil }
func (NopSink) RecordCorpus(CorpusEvent) error       { return nil }
func (NopSink) RecordAccuracy([]AccuracyEvent) error { return nil }
