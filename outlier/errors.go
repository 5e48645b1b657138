package outlier

import (
	"errors"
	"fmt"
)

// ErrOutlier is the sentinel matched by every *OutlierError.
var ErrOutlier = errors.New("outlier error")

// OutlierError reports an input the detector cannot score.
type OutlierError struct {
	Points    int
	Neighbors int
	Reason    string
}

func (e *OutlierError) Error() string {
	return fmt.Sprintf("outlier: %s (points=%d, neighbors=%d)", e.Reason, e.Points, e.Neighbors)
}

func (e *OutlierError) Unwrap() error { return ErrOutlier }
