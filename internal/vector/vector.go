// Package vector provides the fixed-length embedding vector type, its binary codec,
// and similarity scoring.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is matched by every error caused by comparing vectors of different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// DimensionMismatchError reports the two lengths involved in a mismatch.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d != %d", ErrDimensionMismatch, e.Left, e.Right)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Vector is an embedding. Components are stored as float32; all arithmetic accumulates in float64.
type Vector []float32

// Dims returns the dimensionality.
func (v Vector) Dims() int {
	return len(v)
}

// Clone returns a copy that shares no memory with v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// FromFloat64 converts provider output to a Vector.
func FromFloat64(values []float64) Vector {
	out := make(Vector, len(values))
	for i, x := range values {
		out[i] = float32(x)
	}
	return out
}

// Equal reports whether a and b have the same length and identical components.
func Equal(a, b Vector) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Finite reports whether every component is a finite number.
func Finite(v Vector) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// CheckDims returns a DimensionMismatchError when a and b differ in length.
func CheckDims(a, b Vector) error {
	if len(a) != len(b) {
		return &DimensionMismatchError{Left: len(a), Right: len(b)}
	}
	return nil
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) (float64, error) {
	if err := CheckDims(a, b); err != nil {
		return 0, err
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// Norm returns the L2 norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v, or a plain copy when v has zero norm.
func Normalize(v Vector) Vector {
	out := v.Clone()
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / n)
	}
	return out
}
