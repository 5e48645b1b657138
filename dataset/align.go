package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Default metadata field names.
const (
	DefaultCategoryField   = "FAQ_id"
	DefaultTextField       = "question"
	DefaultMarketField     = "market"
	DefaultTimestampField  = "timestamp"
	DefaultConfidenceField = "confidence"
	DefaultIDField         = "id"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type alignOptions struct {
	categoryField   string
	textField       string
	marketField     string
	timestampField  string
	confidenceField string
	idField         string
}

// AlignOption configures Align.
type AlignOption func(*alignOptions)

// WithCategoryField sets the required category field name.
func WithCategoryField(name string) AlignOption {
	return func(o *alignOptions) { o.categoryField = name }
}

// WithTextField sets the display-text field name.
func WithTextField(name string) AlignOption {
	return func(o *alignOptions) { o.textField = name }
}

// WithMarketField sets the market field name.
func WithMarketField(name string) AlignOption {
	return func(o *alignOptions) { o.marketField = name }
}

// WithTimestampField sets the timestamp field name.
func WithTimestampField(name string) AlignOption {
	return func(o *alignOptions) { o.timestampField = name }
}

// WithConfidenceField sets the confidence field name.
func WithConfidenceField(name string) AlignOption {
	return func(o *alignOptions) { o.confidenceField = name }
}

// WithIDField sets the metadata id field name.
func WithIDField(name string) AlignOption {
	return func(o *alignOptions) { o.idField = name }
}

// Align validates a vector table and a metadata table and joins them row by row.
//
// The vector table's first column is an identifier and is dropped from the numeric
// data. The metadata table's first row is promoted to field names.
//
// Row counts are compared first: any mismatch is an *AlignmentError regardless of
// the tables' content. Every other defect is a *SchemaError.
func Align(vectors, metadata Table, opts ...AlignOption) (*Dataset, error) {
	o := alignOptions{
		categoryField:   DefaultCategoryField,
		textField:       DefaultTextField,
		marketField:     DefaultMarketField,
		timestampField:  DefaultTimestampField,
		confidenceField: DefaultConfidenceField,
		idField:         DefaultIDField,
	}
	for _, opt := range opts {
		opt(&o)
	}

	metaRows := max(len(metadata)-1, 0)
	if len(vectors) != metaRows {
		return nil, &AlignmentError{VectorRows: len(vectors), MetadataRows: metaRows}
	}
	if len(metadata) == 0 {
		return nil, schemaErr("metadata", "", -1, -1, "missing header row")
	}

	header := make(map[string]int, len(metadata[0]))
	for i, name := range metadata[0] {
		header[strings.TrimSpace(name)] = i
	}
	if _, ok := header[o.categoryField]; !ok {
		return nil, schemaErr("metadata", o.categoryField, 0, -1, "required field missing")
	}
	if metaRows == 0 {
		return nil, schemaErr("metadata", "", -1, -1, "no rows")
	}

	vecs, ids, err := parseVectors(vectors)
	if err != nil {
		return nil, err
	}

	names := metadata[0]
	records := make([]MetadataRecord, metaRows)
	for i, row := range metadata[1:] {
		if len(row) > len(names) {
			return nil, schemaErr("metadata", "", i, len(names), "more cells than header fields")
		}
		fields := make(map[string]string, len(names))
		for j, name := range names {
			if j < len(row) {
				fields[strings.TrimSpace(name)] = strings.TrimSpace(row[j])
			} else {
				fields[strings.TrimSpace(name)] = ""
			}
		}

		rec := MetadataRecord{
			ID:         fields[o.idField],
			Category:   fields[o.categoryField],
			Text:       fields[o.textField],
			Market:     fields[o.marketField],
			Confidence: math.NaN(),
			Fields:     fields,
		}
		if rec.ID == "" {
			rec.ID = ids[i]
		}
		if rec.Category == "" {
			return nil, schemaErr("metadata", o.categoryField, i, header[o.categoryField], "empty category")
		}
		if raw := fields[o.timestampField]; raw != "" {
			ts, ok := parseTimestamp(raw)
			if !ok {
				return nil, schemaErr("metadata", o.timestampField, i, header[o.timestampField], "unparsable timestamp "+strconv.Quote(raw))
			}
			rec.Timestamp = ts
		}
		if raw := fields[o.confidenceField]; raw != "" {
			c, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsInf(c, 0) {
				return nil, schemaErr("metadata", o.confidenceField, i, header[o.confidenceField], "invalid confidence "+strconv.Quote(raw))
			}
			rec.Confidence = c
		}
		records[i] = rec
	}

	return &Dataset{vectors: vecs, records: records, dim: len(vecs[0])}, nil
}

func parseVectors(t Table) ([][]float64, []string, error) {
	dim := -1
	data := make([]float64, 0, len(t)*max(len(t[0])-1, 0))
	ids := make([]string, len(t))
	for i, row := range t {
		if len(row) < 2 {
			return nil, nil, schemaErr("vector", "", i, -1, "row has no numeric columns")
		}
		if dim == -1 {
			dim = len(row) - 1
		} else if len(row)-1 != dim {
			return nil, nil, schemaErr("vector", "", i, -1, "ragged row")
		}
		ids[i] = strings.TrimSpace(row[0])
		for j, cell := range row[1:] {
			x, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, nil, schemaErr("vector", "", i, j+1, "not a finite number "+strconv.Quote(cell))
			}
			data = append(data, x)
		}
	}

	// Single backing array, one slice header per row.
	vecs := make([][]float64, len(t))
	for i := range vecs {
		vecs[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return vecs, ids, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
