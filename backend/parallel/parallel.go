// Package parallel implements a float32 matrix-multiplication backend that
// partitions the output rows over a bounded group of goroutines.
package parallel

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/backend/cpu"
	"github.com/rnstpu/rnstpu/matrix"
)

// minRowsPerWorker is the smallest block of rows handed to a goroutine.
const minRowsPerWorker = 16

// Parallel is a multi-threaded float32 backend.
type Parallel struct {
	workers int
	ready   bool
}

// DefaultWorkers returns the number of logical cores reported by the CPU,
// or 1 if it cannot be determined.
func DefaultWorkers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return 1
}

// New returns a backend using the given number of workers. A value smaller
// than 1 selects DefaultWorkers.
func New(workers int) *Parallel {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	return &Parallel{workers: workers}
}

// Workers returns the maximum number of goroutines used by MatMul.
func (p *Parallel) Workers() int {
	return p.workers
}

// SetupContext implements backend.Backend.
func (p *Parallel) SetupContext() error {
	p.ready = true
	return nil
}

// MatMul implements backend.Backend.
func (p *Parallel) MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error) {

	if !p.ready {
		return nil, fmt.Errorf("backend/parallel: %w", backend.ErrNotReady)
	}

	if err := backend.CheckShapes(a, b); err != nil {
		return nil, fmt.Errorf("backend/parallel: %w", err)
	}

	a32 := backend.Narrow(a)
	b32 := backend.Narrow(b)

	out := &matrix.Matrix[float32]{Rows: a.Rows, Cols: b.Cols, Data: make([]float32, a.Rows*b.Cols)}

	block := (a.Rows + p.workers - 1) / p.workers
	if block < minRowsPerWorker {
		block = minRowsPerWorker
	}

	var g errgroup.Group
	g.SetLimit(p.workers)

	for start := 0; start < a.Rows; start += block {
		start, end := start, start+block
		if end > a.Rows {
			end = a.Rows
		}
		g.Go(func() error {
			// blocks write to disjoint rows of out
			cpu.MatMulRows(out, a32, b32, start, end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backend/parallel: %w", err)
	}

	return backend.Widen(out), nil
}

// ExactBound implements backend.Backend.
func (*Parallel) ExactBound() uint64 {
	return backend.Float32ExactBound
}

// Name implements backend.Backend.
func (*Parallel) Name() string {
	return "parallel"
}

// Release implements backend.Backend.
func (p *Parallel) Release() error {
	p.ready = false
	return nil
}

var _ backend.Backend = &Parallel{}
