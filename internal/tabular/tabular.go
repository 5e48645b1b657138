// Package tabular decodes delimited text files into dataset tables.
//
// Both the vector file and the metadata file are read without header
// interpretation; dataset.Align decides which row is a header.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/vecsight/dataset"
)

// ErrUnsupportedFormat is returned for file extensions with no known delimiter.
var ErrUnsupportedFormat = errors.New("tabular: unsupported format")

// Format selects the field delimiter.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
)

// Delimiter returns the field separator of the format.
func (f Format) Delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

func (f Format) String() string {
	if f == FormatTSV {
		return "tsv"
	}
	return "csv"
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Supported reports whether path has an extension FormatOf understands.
func Supported(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// Read decodes every record of r. Rows may have differing cell counts; ragged
// input is reported later by dataset validation with row coordinates.
func Read(r io.Reader, f Format) (dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = f.Delimiter()
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	if f == FormatTSV {
		cr.LazyQuotes = true
	}

	var t dataset.Table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: decode %s: %w", f, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t = append(t, rec)
	}
}

// ReadFile decodes the file at path using the format implied by its extension.
func ReadFile(path string) (dataset.Table, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: %w", err)
	}
	defer fh.Close()

	t, err := Read(fh, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// LoadDataset reads a vector file and a metadata file and aligns them.
func LoadDataset(vectorsPath, metadataPath string, opts ...dataset.AlignOption) (*dataset.Dataset, error) {
	vecs, err := ReadFile(vectorsPath)
	if err != nil {
		return nil, err
	}
	meta, err := ReadFile(metadataPath)
	if err != nil {
		return nil, err
	}
	return dataset.Align(vecs, meta, opts...)
}

// ParseVectors converts a vector table (identifier column followed by numeric
// columns) into ids and vectors. Every row must have the same width.
func ParseVectors(t dataset.Table) ([]string, [][]float64, error) {
	if len(t) == 0 {
		return nil, nil, errors.New("tabular: no vector rows")
	}
	dim := len(t[0]) - 1
	if dim < 1 {
		return nil, nil, fmt.Errorf("tabular: row 0 has no numeric columns")
	}
	ids := make([]string, len(t))
	vecs := make([][]float64, len(t))
	for i, row := range t {
		if len(row)-1 != dim {
			return nil, nil, fmt.Errorf("tabular: row %d has %d values, want %d", i, len(row)-1, dim)
		}
		ids[i] = strings.TrimSpace(row[0])
		v := make([]float64, dim)
		for j, cell := range row[1:] {
			x, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, nil, fmt.Errorf("tabular: row %d column %d: not a finite number %q", i, j+1, cell)
			}
			v[j] = x
		}
		vecs[i] = v
	}
	return ids, vecs, nil
}

// ReadVectors reads and parses a vector file.
func ReadVectors(path string) ([]string, [][]float64, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseVectors(t)
}
