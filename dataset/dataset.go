package dataset

import (
	"math"
	"slices"
	"time"
)

// Table is a decoded tabular source: one slice of cells per row.
type Table [][]string

// MetadataRecord describes one utterance.
type MetadataRecord struct {
	// ID identifies the item. Taken from the metadata id field, or the vector
	// table's leading identifier column when the metadata has none.
	ID string
	// Category is the semantic label (e.g. an FAQ identifier). Required.
	Category string
	// Text is the display text.
	Text string
	// Market is an optional market tag ("" when missing).
	Market string
	// Timestamp is optional (zero when missing).
	Timestamp time.Time
	// Confidence is the optional top-intent confidence (NaN when missing).
	Confidence float64
	// Fields holds every raw metadata field by name.
	Fields map[string]string
}

// HasConfidence reports whether the record carries a confidence value.
func (r MetadataRecord) HasConfidence() bool {
	return !math.IsNaN(r.Confidence)
}

// Dataset is an aligned, immutable pair of vectors and metadata.
// Row i of Vectors and Records always refers to the same item.
type Dataset struct {
	vectors [][]float64
	records []MetadataRecord
	dim     int
}

// New builds a Dataset from already-decoded vectors and records.
// It enforces the same invariants as Align: equal row counts, a uniform
// dimension, finite values and a category on every record.
func New(vectors [][]float64, records []MetadataRecord) (*Dataset, error) {
	if len(vectors) != len(records) {
		return nil, &AlignmentError{VectorRows: len(vectors), MetadataRows: len(records)}
	}
	if len(vectors) == 0 {
		return nil, schemaErr("vector", "", -1, -1, "no rows")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, schemaErr("vector", "", 0, -1, "no numeric columns")
	}

	vecs := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, schemaErr("vector", "", i, -1, "ragged row")
		}
		for j, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, schemaErr("vector", "", i, j, "non-finite value")
			}
		}
		vecs[i] = slices.Clone(v)
	}

	recs := slices.Clone(records)
	for i, r := range recs {
		if r.Category == "" {
			return nil, schemaErr("metadata", "category", i, -1, "empty category")
		}
	}

	return &Dataset{vectors: vecs, records: recs, dim: dim}, nil
}

// Len returns the number of aligned rows.
func (d *Dataset) Len() int { return len(d.vectors) }

// Dim returns the vector dimensionality.
func (d *Dataset) Dim() int { return d.dim }

// Vector returns row i's vector. The slice must not be modified.
func (d *Dataset) Vector(i int) []float64 { return d.vectors[i] }

// Vectors returns all vectors. The slices must not be modified.
func (d *Dataset) Vectors() [][]float64 { return d.vectors }

// Record returns row i's metadata.
func (d *Dataset) Record(i int) MetadataRecord { return d.records[i] }

// Records returns all metadata records. The slice must not be modified.
func (d *Dataset) Records() []MetadataRecord { return d.records }

// Categories returns the category label of every row, in row order.
func (d *Dataset) Categories() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.Category
	}
	return out
}
