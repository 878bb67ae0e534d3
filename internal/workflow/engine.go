package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bxav/product-analyzer/internal/checkpoint"
)

// ErrRunExists is returned when Run is asked to reuse a run ID that
// already has a checkpoint. Clear the checkpoint to rerun.
var ErrRunExists = errors.New("workflow: run id already used")

// StageError wraps a stage failure with the last good State, so
// callers can inspect or surface partial results.
type StageError struct {
	Stage string
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageFunc computes a Delta from the current State. It must not
// mutate the State it receives.
type StageFunc func(ctx context.Context, s State) (Delta, error)

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  StageFunc
}

// Engine executes a fixed sequence of stages over a shared State,
// merging each stage's Delta through the reducer table, and writes a
// checkpoint once after the terminal stage.
type Engine struct {
	stages      []Stage
	checkpoints *checkpoint.Store
	progress    *ProgressReporter
	logger      *zap.Logger
}

// NewEngine assembles an engine. checkpoints may be nil to skip
// persistence; progress may be nil to create a private reporter.
func NewEngine(stages []Stage, checkpoints *checkpoint.Store, progress *ProgressReporter, logger *zap.Logger) *Engine {
	if progress == nil {
		progress = NewProgressReporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		stages:      stages,
		checkpoints: checkpoints,
		progress:    progress,
		logger:      logger,
	}
}

// Progress returns the engine's progress event stream.
func (e *Engine) Progress() <-chan ProgressEvent {
	return e.progress.Subscribe()
}

// Close closes the progress stream. Call after Run returns.
func (e *Engine) Close() {
	e.progress.Close()
}

// Run executes every stage in order, seeded with the subject. On stage
// failure it returns the last good State wrapped in a *StageError. On
// success the final State is checkpointed under runID.
func (e *Engine) Run(ctx context.Context, subject, subjectKind, runID string) (State, error) {
	if subject == "" {
		return State{}, errors.New("workflow: subject is required")
	}
	if e.checkpoints != nil && e.checkpoints.Exists(runID) {
		return State{}, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	state := State{Subject: subject, SubjectKind: subjectKind}

	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return state, &StageError{Stage: stage.Name, State: state, Err: err}
		}

		e.logger.Info("stage starting", zap.String("stage", stage.Name), zap.String("runId", runID))
		e.progress.Emit(ProgressEvent{Stage: stage.Name, Status: ProgressWorking})

		delta, err := stage.Run(ctx, state)
		if err != nil {
			e.logger.Error("stage failed", zap.String("stage", stage.Name), zap.Error(err))
			e.progress.Emit(ProgressEvent{Stage: stage.Name, Status: ProgressFailed, Message: err.Error()})
			return state, &StageError{Stage: stage.Name, State: state, Err: err}
		}

		state = Apply(state, delta)
		e.logger.Info("stage complete", zap.String("stage", stage.Name))
		e.progress.Emit(ProgressEvent{Stage: stage.Name, Status: ProgressComplete})
	}

	if e.checkpoints != nil {
		if err := e.checkpoints.Save(runID, state); err != nil {
			return state, fmt.Errorf("workflow: checkpoint run %s: %w", runID, err)
		}
	}
	return state, nil
}
