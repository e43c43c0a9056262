// Package cpu implements a single-threaded float32 matrix-multiplication
// backend. It mimics the arithmetic of a single-precision accelerator and
// serves as the reference backend.
package cpu

import (
	"fmt"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/matrix"
)

// CPU is a naive float32 backend.
type CPU struct {
	ready bool
}

// New returns a new CPU backend.
func New() *CPU {
	return &CPU{}
}

// SetupContext implements backend.Backend.
func (c *CPU) SetupContext() error {
	c.ready = true
	return nil
}

// MatMul implements backend.Backend.
func (c *CPU) MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error) {

	if !c.ready {
		return nil, fmt.Errorf("backend/cpu: %w", backend.ErrNotReady)
	}

	if err := backend.CheckShapes(a, b); err != nil {
		return nil, fmt.Errorf("backend/cpu: %w", err)
	}

	a32 := backend.Narrow(a)
	b32 := backend.Narrow(b)

	out := &matrix.Matrix[float32]{Rows: a.Rows, Cols: b.Cols, Data: make([]float32, a.Rows*b.Cols)}

	MatMulRows(out, a32, b32, 0, a.Rows)

	return backend.Widen(out), nil
}

// MatMulRows computes rows [start, end) of a * b into out, accumulating in float32.
func MatMulRows(out, a, b *matrix.Matrix[float32], start, end int) {

	var val float32

	n := a.Cols

	for i := start; i < end; i++ {

		ai := a.Data[i*n : (i+1)*n]
		oi := out.Data[i*out.Cols : (i+1)*out.Cols]

		for j := range oi {

			val = 0

			for k := 0; k < n; k++ {
				val += ai[k] * b.Data[k*b.Cols+j]
			}

			oi[j] = val
		}
	}
}

// ExactBound implements backend.Backend.
func (*CPU) ExactBound() uint64 {
	return backend.Float32ExactBound
}

// Name implements backend.Backend.
func (*CPU) Name() string {
	return "cpu"
}

// Release implements backend.Backend.
func (c *CPU) Release() error {
	c.ready = false
	return nil
}

var _ backend.Backend = &CPU{}
