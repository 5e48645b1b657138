package snapshot

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBuildBusy is the sentinel matched by every *BuildBusyError.
	ErrBuildBusy = errors.New("build already in progress")

	// ErrBuildTimeout is the sentinel matched by every *BuildTimeoutError.
	ErrBuildTimeout = errors.New("build timed out")

	// ErrNilDataset is returned when Rebuild is called without a dataset.
	ErrNilDataset = errors.New("dataset is nil")
)

// Stage names a build step.
type Stage string

// Build stages in execution order.
const (
	StageScale     Stage = "scale"
	StageTransform Stage = "transform"
	StageProject   Stage = "project"
	StageScore     Stage = "score"
	StageSurface   Stage = "surface"
)

// StageError wraps the error of a failed build stage. errors.Is and errors.As
// still reach the stage's own typed error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("snapshot: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// BuildBusyError is returned when a rebuild is requested while another build
// is in flight. The caller may retry.
type BuildBusyError struct {
	// Current is the version of the snapshot being served (0 if none).
	Current uint64
}

func (e *BuildBusyError) Error() string {
	return fmt.Sprintf("snapshot: build rejected, another build is in progress (serving version %d)", e.Current)
}

func (e *BuildBusyError) Unwrap() error { return ErrBuildBusy }

// BuildTimeoutError is returned when a build exceeds its time budget.
// Nothing is published.
type BuildTimeoutError struct {
	Timeout time.Duration
	Stage   Stage
}

func (e *BuildTimeoutError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("snapshot: build exceeded %s", e.Timeout)
	}
	return fmt.Sprintf("snapshot: build exceeded %s during stage %s", e.Timeout, e.Stage)
}

func (e *BuildTimeoutError) Unwrap() error { return ErrBuildTimeout }
