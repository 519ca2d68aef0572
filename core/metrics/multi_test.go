package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordCorpus(CorpusEvent) error {
	r.count++
	return nil
}

// solveOnly does not implement the optional recorders.
type solveOnly struct{ count int }

func (s *solveOnly) RecordSolve(SolveEvent) error {
	s.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &solveOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordSolve(SolveEvent{}); err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if err := m.RecordCorpus(CorpusEvent{}); err != nil {
		t.Fatalf("record corpus: %v", err)
	}
	if err := m.RecordAccuracy(nil); err != nil {
		t.Fatalf("record accuracy: %v", err)
	}
	if s1.count != 2 {
		t.Fatalf("expected 2 events on full sink, got %d", s1.count)
	}
	if s2.count != 1 {
		t.Fatalf("expected only the solve event on partial sink, got %d", s2.count)
	}
}

func TestNopSink_ImplementsRecorders(t *testing.T) {
	var s MetricsSink = NopSink{}
	if _, ok := s.(CorpusRecorder); !ok {
		t.Fatalf("NopSink does not record corpus events")
	}
	r, ok := s.(AccuracyRecorder)
	if !ok {
		t.Fatalf("NopSink does not record accuracy")
	}
	if err := r.RecordAccuracy(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordSolve(SolveEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
