package snapshot

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/outlier"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/scaler"
)

// OutlierRow is one display row of a surfaced category.
type OutlierRow struct {
	Index       int           `json:"index"`
	ID          string        `json:"id,omitempty"`
	Category    string        `json:"category"`
	Coordinates []float64     `json:"coordinates"`
	Label       outlier.Label `json:"label"`
	Factor      float64       `json:"factor"`
	Text        string        `json:"text,omitempty"`
}

// Flagged reports whether the row carries the outlier label.
func (r OutlierRow) Flagged() bool { return r.Label == outlier.LabelOutlier }

// Snapshot is an immutable, versioned fit bundle. Every field was produced by
// the same build; nothing reachable from a published Snapshot is modified.
type Snapshot struct {
	// Version is assigned on publish, starting at 1.
	Version uint64
	BuildID uuid.UUID
	BuiltAt time.Time
	// Duration is the wall-clock time of the build.
	Duration time.Duration

	Dataset    *dataset.Dataset
	Scaler     *scaler.Model
	Projection *projection.Model
	Outliers   *outlier.ScoreSet

	// Coordinates holds the embedded position of every dataset row.
	Coordinates [][]float64
	// OutlierRows holds every member of every surfaced category.
	OutlierRows []OutlierRow
}

// Len returns the number of dataset rows.
func (s *Snapshot) Len() int { return s.Dataset.Len() }

// FlaggedRows returns only the outlier-labeled rows.
func (s *Snapshot) FlaggedRows() []OutlierRow {
	out := make([]OutlierRow, 0, s.Outliers.FlaggedCount())
	for _, r := range s.OutlierRows {
		if r.Flagged() {
			out = append(out, r)
		}
	}
	return out
}

// Categories returns the surfaced categories in first-row order.
func (s *Snapshot) Categories() []string {
	var out []string
	for _, r := range s.OutlierRows {
		if !slices.Contains(out, r.Category) {
			out = append(out, r.Category)
		}
	}
	return out
}

// Validate checks that every field describes the same rows.
func (s *Snapshot) Validate() error {
	n := s.Dataset.Len()
	switch {
	case s.Scaler.Dim() != s.Dataset.Dim():
		return fmt.Errorf("snapshot: scaler dimension %d, dataset dimension %d", s.Scaler.Dim(), s.Dataset.Dim())
	case s.Projection.Len() != n:
		return fmt.Errorf("snapshot: projection has %d rows, dataset %d", s.Projection.Len(), n)
	case s.Outliers.Len() != n:
		return fmt.Errorf("snapshot: outlier scores have %d rows, dataset %d", s.Outliers.Len(), n)
	case len(s.Coordinates) != n:
		return fmt.Errorf("snapshot: %d coordinates, dataset %d", len(s.Coordinates), n)
	}
	for _, r := range s.OutlierRows {
		if r.Index < 0 || r.Index >= n {
			return fmt.Errorf("snapshot: outlier row index %d out of range", r.Index)
		}
	}
	return nil
}
