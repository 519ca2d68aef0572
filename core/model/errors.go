package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports malformed generator or scenario data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasible reports that no commitment satisfies the constraints.
	ErrInfeasible = errors.New("infeasible")
	// ErrSolver reports a solve failure unrelated to feasibility. Callers may
	// retry, e.g. with a longer timeout.
	ErrSolver = errors.New("solver error")
	// ErrDataStarvation reports a corpus too small to train on.
	ErrDataStarvation = errors.New("data starvation")
)

// Stage names a step of the learning pipeline.
type Stage string

const (
	StageGeneration Stage = "generation"
	StageSolve      Stage = "solve"
	StageTraining   Stage = "training"
	StageEvaluation Stage = "evaluation"
)

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// WrapStage returns nil for a nil error.
func WrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
