package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCorpus forwards corpus summaries to sinks supporting them.
func (m *MultiSink) RecordCorpus(ev CorpusEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CorpusRecorder); ok {
			if err := rec.RecordCorpus(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAccuracy forwards accuracy scores to sinks supporting them.
func (m *MultiSink) RecordAccuracy(evs []AccuracyEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AccuracyRecorder); ok {
			if err := rec.RecordAccuracy(evs); err != nil {
				return err
			}
		}
	}
	return nil
}
