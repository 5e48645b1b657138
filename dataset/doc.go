// Package dataset validates and row-aligns a vector table with a metadata table.
//
// Both tables arrive already decoded into uniform string rows. The vector table
// carries one leading identifier column followed by D numeric columns; the metadata
// table carries a header row that is promoted to field names.
//
//	ds, err := dataset.Align(vectors, metadata, dataset.WithCategoryField("FAQ_id"))
//	if errors.Is(err, dataset.ErrAlignment) {
//	    // vectors and metadata disagree on row count
//	}
//
// A Dataset is immutable once built. Accessors return the backing slices for
// zero-copy reads; callers must not modify them.
package dataset
