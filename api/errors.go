package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/vecsight"
	"github.com/hupe1980/vecsight/blobstore"
)

// errorStatus maps pipeline errors to HTTP status codes and a stable kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, vecsight.ErrBuildBusy):
		return http.StatusConflict, "build_busy"
	case errors.Is(err, vecsight.ErrBuildTimeout):
		return http.StatusGatewayTimeout, "build_timeout"
	case errors.Is(err, vecsight.ErrSchema):
		return http.StatusUnprocessableEntity, "schema"
	case errors.Is(err, vecsight.ErrAlignment):
		return http.StatusUnprocessableEntity, "alignment"
	case errors.Is(err, vecsight.ErrScaling):
		return http.StatusUnprocessableEntity, "scaling"
	case errors.Is(err, vecsight.ErrProjection):
		return http.StatusUnprocessableEntity, "projection"
	case errors.Is(err, vecsight.ErrOutlier):
		return http.StatusUnprocessableEntity, "outlier"
	case errors.Is(err, vecsight.ErrInsufficientCorpus), errors.Is(err, vecsight.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity, "corpus"
	case errors.Is(err, vecsight.ErrModelNotLoaded):
		return http.StatusPreconditionFailed, "model_not_loaded"
	case errors.Is(err, vecsight.ErrThresholdConfig), errors.Is(err, vecsight.ErrNoThreshold):
		return http.StatusBadRequest, "threshold"
	case errors.Is(err, vecsight.ErrMissingDatasetTag):
		return http.StatusBadRequest, "missing_dataset_tag"
	case errors.Is(err, vecsight.ErrTriggerThrottled):
		return http.StatusTooManyRequests, "throttled"
	case errors.Is(err, vecsight.ErrBackpressure):
		return http.StatusServiceUnavailable, "backpressure"
	case errors.Is(err, vecsight.ErrNoBlobStore):
		return http.StatusNotImplemented, "no_blob_store"
	case errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
