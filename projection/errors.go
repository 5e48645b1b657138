package projection

import (
	"errors"
	"fmt"
)

// ErrProjection is the sentinel matched by every *ProjectionError.
var ErrProjection = errors.New("projection error")

// ProjectionError reports an input the projector cannot fit.
type ProjectionError struct {
	Points    int
	Neighbors int
	Reason    string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection: %s (points=%d, neighbors=%d)", e.Reason, e.Points, e.Neighbors)
}

func (e *ProjectionError) Unwrap() error { return ErrProjection }
