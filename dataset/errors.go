package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is the sentinel matched by every *SchemaError.
	ErrSchema = errors.New("schema error")

	// ErrAlignment is the sentinel matched by every *AlignmentError.
	ErrAlignment = errors.New("alignment error")
)

// SchemaError reports a missing required field or a malformed cell.
// Row and Column are zero-based positions in the offending table; -1 when not applicable.
type SchemaError struct {
	Table  string
	Field  string
	Row    int
	Column int
	Reason string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema: %s table", e.Table)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(": row %d", e.Row)
	}
	if e.Column >= 0 {
		msg += fmt.Sprintf(": column %d", e.Column)
	}
	return msg + ": " + e.Reason
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// AlignmentError reports a row-count mismatch between vectors and metadata.
type AlignmentError struct {
	VectorRows   int
	MetadataRows int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment: %d vector rows vs %d metadata rows", e.VectorRows, e.MetadataRows)
}

func (e *AlignmentError) Unwrap() error { return ErrAlignment }

func schemaErr(table, field string, row, col int, reason string) *SchemaError {
	return &SchemaError{Table: table, Field: field, Row: row, Column: col, Reason: reason}
}
