// Package scaler standardizes vectors per dimension (zero mean, unit variance).
//
// A Model is fitted from exactly one Dataset and is immutable afterwards;
// Transform is a pure function of the model and its input.
package scaler

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/vecsight/dataset"
)

// MinStd is the smallest standard deviation treated as non-degenerate.
const MinStd = 1e-12

var (
	// ErrScaling is the sentinel matched by every *ScalingError.
	ErrScaling = errors.New("scaling error")

	// ErrDimensionMismatch is returned when Transform receives vectors of the wrong width.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ScalingError reports zero-variance dimensions.
type ScalingError struct {
	Dimensions []int
}

func (e *ScalingError) Error() string {
	return fmt.Sprintf("scaling: %d zero-variance dimension(s): %v", len(e.Dimensions), e.Dimensions)
}

func (e *ScalingError) Unwrap() error { return ErrScaling }

// Policy selects how zero-variance dimensions are handled.
type Policy int

const (
	// PolicyReject fails the fit with a *ScalingError.
	PolicyReject Policy = iota
	// PolicySubstitute replaces the std of a degenerate dimension with 1,
	// which maps the whole column to 0.
	PolicySubstitute
)

func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicySubstitute:
		return "substitute"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParsePolicy parses "reject" or "substitute".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "reject":
		return PolicyReject, nil
	case "substitute":
		return PolicySubstitute, nil
	default:
		return PolicyReject, fmt.Errorf("scaler: unknown policy %q", s)
	}
}

type options struct {
	policy Policy
}

// Option configures Fit.
type Option func(*options)

// WithPolicy sets the degenerate-dimension policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// Model holds per-dimension standardization parameters.
type Model struct {
	mean       []float64
	std        []float64
	degenerate []int
}

// Fit computes population mean and standard deviation for every dimension of ds.
func Fit(ds *dataset.Dataset, opts ...Option) (*Model, error) {
	return FitVectors(ds.Vectors(), opts...)
}

// FitVectors is Fit over a raw matrix. All rows must share one width.
func FitVectors(vectors [][]float64, opts ...Option) (*Model, error) {
	o := options{policy: PolicyReject}
	for _, opt := range opts {
		opt(&o)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("scaling: empty input")
	}
	dim := len(vectors[0])
	n := float64(len(vectors))

	mean := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("scaling: row %d: %w: expected %d, got %d", i, ErrDimensionMismatch, dim, len(v))
		}
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	// Two-pass variance keeps cancellation error low for large offsets.
	std := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			d := x - mean[j]
			std[j] += d * d
		}
	}

	var degenerate []int
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] <= MinStd {
			degenerate = append(degenerate, j)
		}
	}

	if len(degenerate) > 0 {
		if o.policy == PolicyReject {
			return nil, &ScalingError{Dimensions: degenerate}
		}
		for _, j := range degenerate {
			std[j] = 1
		}
	}

	return &Model{mean: mean, std: std, degenerate: degenerate}, nil
}

// FromParams rebuilds a model from stored parameters.
func FromParams(mean, std []float64) (*Model, error) {
	if len(mean) == 0 || len(mean) != len(std) {
		return nil, fmt.Errorf("scaling: %w: %d means vs %d stds", ErrDimensionMismatch, len(mean), len(std))
	}
	for j, s := range std {
		if !(s > MinStd) || math.IsInf(s, 0) {
			return nil, &ScalingError{Dimensions: []int{j}}
		}
	}
	return &Model{mean: slices.Clone(mean), std: slices.Clone(std)}, nil
}

// Dim returns the number of dimensions.
func (m *Model) Dim() int { return len(m.mean) }

// Mean returns a copy of the per-dimension means.
func (m *Model) Mean() []float64 { return slices.Clone(m.mean) }

// Std returns a copy of the per-dimension standard deviations.
func (m *Model) Std() []float64 { return slices.Clone(m.std) }

// Degenerate returns the dimensions whose std was substituted.
func (m *Model) Degenerate() []int { return slices.Clone(m.degenerate) }

// Transform returns standardized copies of vectors. The input is not modified.
func (m *Model) Transform(vectors [][]float64) ([][]float64, error) {
	dim := len(m.mean)
	data := make([]float64, len(vectors)*dim)
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("scaling: row %d: %w: expected %d, got %d", i, ErrDimensionMismatch, dim, len(v))
		}
		row := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j, x := range v {
			row[j] = (x - m.mean[j]) / m.std[j]
		}
		out[i] = row
	}
	return out, nil
}
