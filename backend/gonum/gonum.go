// Package gonum implements a float64 matrix-multiplication backend on top
// of gonum's BLAS-backed dense matrices.
package gonum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/matrix"
)

// Gonum is a double-precision backend.
type Gonum struct {
	ready bool
}

// New returns a new Gonum backend.
func New() *Gonum {
	return &Gonum{}
}

// SetupContext implements backend.Backend.
func (g *Gonum) SetupContext() error {
	g.ready = true
	return nil
}

// MatMul implements backend.Backend.
func (g *Gonum) MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error) {

	if !g.ready {
		return nil, fmt.Errorf("backend/gonum: %w", backend.ErrNotReady)
	}

	if err := backend.CheckShapes(a, b); err != nil {
		return nil, fmt.Errorf("backend/gonum: %w", err)
	}

	// mat.NewDense takes ownership of its backing slice
	da := mat.NewDense(a.Rows, a.Cols, append([]float64(nil), a.Data...))
	db := mat.NewDense(b.Rows, b.Cols, append([]float64(nil), b.Data...))

	var dc mat.Dense
	dc.Mul(da, db)

	rows, cols := dc.Dims()
	out := &matrix.Matrix[float64]{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
	for i := 0; i < rows; i++ {
		mat.Row(out.Row(i), i, &dc)
	}

	return out, nil
}

// ExactBound implements backend.Backend.
func (*Gonum) ExactBound() uint64 {
	return backend.Float64ExactBound
}

// Name implements backend.Backend.
func (*Gonum) Name() string {
	return "gonum"
}

// Release implements backend.Backend.
func (g *Gonum) Release() error {
	g.ready = false
	return nil
}

var _ backend.Backend = &Gonum{}
