// Package metrics defines the sinks used to observe the commitment pipeline.
// Every sink records solve outcomes; sinks may additionally implement
// CorpusRecorder and AccuracyRecorder. Sinks are created from configuration
// through a factory registry and combined with NewMultiSink when several
// are configured. Implementations live in infra/metrics.
package metrics
