package vecsight

import (
	"errors"

	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/outlier"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/scaler"
	"github.com/hupe1980/vecsight/snapshot"
)

// Sentinels of the component packages. Match with errors.Is; every typed
// error below unwraps to its sentinel.
var (
	ErrSchema             = dataset.ErrSchema
	ErrAlignment          = dataset.ErrAlignment
	ErrScaling            = scaler.ErrScaling
	ErrProjection         = projection.ErrProjection
	ErrOutlier            = outlier.ErrOutlier
	ErrBuildBusy          = snapshot.ErrBuildBusy
	ErrBuildTimeout       = snapshot.ErrBuildTimeout
	ErrModelNotLoaded     = novelty.ErrModelNotLoaded
	ErrThresholdConfig    = novelty.ErrThresholdConfig
	ErrMissingDatasetTag  = novelty.ErrMissingDatasetTag
	ErrInsufficientCorpus = novelty.ErrInsufficientCorpus
	ErrDimensionMismatch  = novelty.ErrDimensionMismatch
	ErrBackpressure       = resource.ErrBackpressure
)

var (
	// ErrNoBlobStore is returned by SaveReference and LoadReference when the
	// engine has no blob store.
	ErrNoBlobStore = errors.New("no blob store configured")

	// ErrTriggerThrottled is returned by Trigger when dataset arrivals exceed
	// the configured trigger rate.
	ErrTriggerThrottled = errors.New("dataset trigger throttled")

	// ErrNoThreshold is returned by Classify when no novelty threshold is configured.
	ErrNoThreshold = errors.New("no novelty threshold configured")
)

// Typed errors of the component packages.
type (
	SchemaError          = dataset.SchemaError
	AlignmentError       = dataset.AlignmentError
	ScalingError         = scaler.ScalingError
	ProjectionError      = projection.ProjectionError
	OutlierError         = outlier.OutlierError
	StageError           = snapshot.StageError
	BuildBusyError       = snapshot.BuildBusyError
	BuildTimeoutError    = snapshot.BuildTimeoutError
	ThresholdConfigError = novelty.ThresholdConfigError
)
