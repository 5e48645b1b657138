package novelty

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotLoaded is returned when scoring is attempted before a
	// reference model has been fitted or loaded.
	ErrModelNotLoaded = errors.New("novelty model not loaded")

	// ErrThresholdConfig is the sentinel matched by every *ThresholdConfigError.
	ErrThresholdConfig = errors.New("invalid novelty threshold")

	// ErrMissingDatasetTag is returned when a batch carries no dataset tag.
	ErrMissingDatasetTag = errors.New("batch has no dataset tag")

	// ErrInsufficientCorpus is returned when the reference corpus is too small.
	ErrInsufficientCorpus = errors.New("reference corpus too small")

	// ErrDimensionMismatch is returned when a vector's dimension differs from
	// the model's.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ThresholdConfigError reports an unusable decision threshold.
type ThresholdConfigError struct {
	Threshold float64
}

func (e *ThresholdConfigError) Error() string {
	return fmt.Sprintf("novelty: threshold %v must be finite and positive", e.Threshold)
}

func (e *ThresholdConfigError) Unwrap() error { return ErrThresholdConfig }
