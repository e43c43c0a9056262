// Package backend defines the matrix-multiplication primitive the
// convolution engine dispatches to, and the exact-integer bounds of the
// floating-point formats such primitives accumulate in.
package backend

import (
	"errors"
	"fmt"

	"github.com/rnstpu/rnstpu/matrix"
)

const (
	// Float32ExactBound is 2^24: every integer in [0, 2^24) is exactly
	// representable as a float32.
	Float32ExactBound = uint64(1) << 24

	// Float64ExactBound is 2^53: every integer in [0, 2^53) is exactly
	// representable as a float64.
	Float64ExactBound = uint64(1) << 53
)

// ErrNotReady is returned by MatMul when SetupContext has not been called
// or the backend has been released.
var ErrNotReady = errors.New("backend not ready")

// Backend is a dense matrix-multiplication primitive, typically a
// hardware accelerator. Grids are exchanged as float64, an implementation
// accumulating in a narrower format narrows on entry.
//
// SetupContext must be called before MatMul, and Release once the backend
// is no longer used. MatMul blocks until the product is available and must
// be safe for concurrent use: engines dispatch batches and residue channels
// from several goroutines.
type Backend interface {
	// SetupContext acquires the resources (device, context, kernels) of the backend.
	SetupContext() error

	// MatMul returns a * b. It fails if a.Cols != b.Rows.
	MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error)

	// ExactBound returns the bound below which the backend represents and
	// accumulates non-negative integers exactly.
	ExactBound() uint64

	// Name returns a short identifier of the backend.
	Name() string

	// Release frees the resources acquired by SetupContext.
	Release() error
}

// CheckShapes returns an error if a and b are malformed or cannot be multiplied.
func CheckShapes(a, b *matrix.Matrix[float64]) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("left operand: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("right operand: %w", err)
	}
	if a.Cols != b.Rows {
		return fmt.Errorf("%dx%d times %dx%d: %w", a.Rows, a.Cols, b.Rows, b.Cols, matrix.ErrInvalidDimension)
	}
	return nil
}

// Narrow converts a float64 grid into the float32 grid a single-precision
// backend operates on.
func Narrow(m *matrix.Matrix[float64]) *matrix.Matrix[float32] {
	return matrix.Convert[float32](m)
}

// Widen converts a float32 grid back into the exchange format.
func Widen(m *matrix.Matrix[float32]) *matrix.Matrix[float64] {
	return matrix.Convert[float64](m)
}
