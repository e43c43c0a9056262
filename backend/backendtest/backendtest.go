// Package backendtest provides a conformance test suite for implementations
// of backend.Backend.
package backendtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/matrix"
	"github.com/rnstpu/rnstpu/utils/sampling"
)

// Run checks that bk satisfies the backend.Backend contract. bk must not
// have been set up yet. It is released when Run returns.
func Run(t *testing.T, bk backend.Backend) {

	a, err := matrix.NewMatrixFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := matrix.NewMatrixFromRows([][]float64{{5, 6}, {7, 8}})
	require.NoError(t, err)

	t.Run(bk.Name()+"/NotReady", func(t *testing.T) {
		_, err := bk.MatMul(a, b)
		require.ErrorIs(t, err, backend.ErrNotReady)
	})

	require.NoError(t, bk.SetupContext())
	defer func() {
		require.NoError(t, bk.Release())
	}()

	t.Run(bk.Name()+"/ExactBound", func(t *testing.T) {
		require.GreaterOrEqual(t, bk.ExactBound(), backend.Float32ExactBound)
	})

	t.Run(bk.Name()+"/2x2", func(t *testing.T) {
		c, err := bk.MatMul(a, b)
		require.NoError(t, err)
		require.Equal(t, [][]float64{{19, 22}, {43, 50}}, c.Rows2D())
	})

	t.Run(bk.Name()+"/InvalidDimension", func(t *testing.T) {
		v, err := matrix.NewColumn([]float64{1, 2, 3})
		require.NoError(t, err)
		_, err = bk.MatMul(a, v)
		require.ErrorIs(t, err, matrix.ErrInvalidDimension)
		_, err = bk.MatMul(a, &matrix.Matrix[float64]{Rows: 2, Cols: 2, Data: []float64{1}})
		require.ErrorIs(t, err, matrix.ErrInvalidDimension)
	})

	prng, err := sampling.NewKeyedPRNG([]byte(bk.Name()))
	require.NoError(t, err)

	// entries below 2^8 and inner dimensions up to 64 keep every partial
	// sum below 2^24
	for _, dims := range [][3]int{{1, 1, 1}, {7, 5, 1}, {33, 64, 3}, {100, 17, 17}} {

		rows, inner, cols := dims[0], dims[1], dims[2]

		t.Run(fmt.Sprintf("%s/Exact/%dx%dx%d", bk.Name(), rows, inner, cols), func(t *testing.T) {

			ma := randomMatrix(t, prng, rows, inner, 1<<8)
			mb := randomMatrix(t, prng, inner, cols, 1<<8)

			want, err := ma.Mul(mb)
			require.NoError(t, err)

			have, err := bk.MatMul(matrix.Convert[float64](ma), matrix.Convert[float64](mb))
			require.NoError(t, err)
			require.Equal(t, rows, have.Rows)
			require.Equal(t, cols, have.Cols)
			require.True(t, want.Equal(matrix.Convert[uint64](have)))
		})
	}

	t.Run(bk.Name()+"/Concurrent", func(t *testing.T) {

		const goroutines = 8

		as := make([]*matrix.Matrix[uint64], goroutines)
		bs := make([]*matrix.Matrix[uint64], goroutines)
		for i := range as {
			// distinct shapes exercise per-shape state
			as[i] = randomMatrix(t, prng, 3+i%3, 16+i, 1<<8)
			bs[i] = randomMatrix(t, prng, 16+i, 1+i%2, 1<<8)
		}

		have := make([]*matrix.Matrix[float64], goroutines)

		var g errgroup.Group
		for i := range as {
			i := i
			g.Go(func() (err error) {
				for k := 0; k < 4; k++ {
					if have[i], err = bk.MatMul(matrix.Convert[float64](as[i]), matrix.Convert[float64](bs[i])); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		for i := range as {
			want, err := as[i].Mul(bs[i])
			require.NoError(t, err)
			require.True(t, want.Equal(matrix.Convert[uint64](have[i])), "goroutine %d", i)
		}
	})
}

func randomMatrix(t *testing.T, prng sampling.PRNG, rows, cols int, bound uint64) *matrix.Matrix[uint64] {
	m, err := matrix.NewMatrix[uint64](rows, cols)
	require.NoError(t, err)
	require.NoError(t, sampling.UniformVector(prng, bound, m.Data))
	return m
}
