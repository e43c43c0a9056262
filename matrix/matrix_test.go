package matrix

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/utils/sampling"
)

func TestMatrix(t *testing.T) {

	t.Run("NewMatrix", func(t *testing.T) {
		_, err := NewMatrix[uint64](0, 3)
		require.ErrorIs(t, err, ErrInvalidDimension)

		_, err = NewMatrixFromRows([][]uint64{{1, 2}, {3}})
		require.ErrorIs(t, err, ErrInvalidDimension)

		m, err := NewMatrixFromRows([][]uint64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		require.Equal(t, uint64(6), m.At(1, 2))
		require.Equal(t, []uint64{2, 5}, m.Col(1))
		require.Equal(t, [][]uint64{{1, 4}, {2, 5}, {3, 6}}, m.Transpose().Rows2D())
		require.Equal(t, uint64(6), m.Max())

		c := m.CopyNew()
		c.Set(0, 0, 7)
		require.False(t, m.Equal(c))
		require.Equal(t, uint64(1), m.At(0, 0))

		require.Error(t, (&Matrix[uint64]{Rows: 2, Cols: 2, Data: make([]uint64, 3)}).Validate())
	})

	t.Run("Mul", func(t *testing.T) {
		a, err := NewMatrixFromRows([][]uint64{{1, 2}, {3, 4}})
		require.NoError(t, err)
		b, err := NewMatrixFromRows([][]uint64{{5, 6}, {7, 8}})
		require.NoError(t, err)

		c, err := a.Mul(b)
		require.NoError(t, err)
		require.Equal(t, [][]uint64{{19, 22}, {43, 50}}, c.Rows2D())

		col, err := NewColumn([]uint64{1, 1, 1})
		require.NoError(t, err)
		_, err = a.Mul(col)
		require.ErrorIs(t, err, ErrInvalidDimension)

		v, err := a.MulVec([]uint64{1, 1})
		require.NoError(t, err)
		require.Equal(t, []uint64{3, 7}, v)
	})

	t.Run("Convert", func(t *testing.T) {
		m, err := NewMatrixFromRows([][]uint64{{1 << 24, 3}})
		require.NoError(t, err)
		f := Convert[float64](m)
		require.Equal(t, []float64{1 << 24, 3}, f.Data)
		require.True(t, m.Equal(Convert[uint64](f)))
	})
}

func TestToeplitz(t *testing.T) {

	t.Run("Example", func(t *testing.T) {
		m, err := Toeplitz([]uint64{1, 2, 3}, 5)
		require.NoError(t, err)
		require.Equal(t, [][]uint64{
			{1, 0, 0},
			{2, 1, 0},
			{3, 2, 1},
			{0, 3, 2},
			{0, 0, 3},
		}, m.Rows2D())

		v, err := m.MulVec([]uint64{4, 5, 6})
		require.NoError(t, err)
		require.Equal(t, []uint64{4, 13, 28, 27, 18}, v)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Toeplitz(nil, 3)
		require.ErrorIs(t, err, ErrInvalidDimension)
		_, err = Toeplitz([]uint64{1, 2, 3}, 2)
		require.ErrorIs(t, err, ErrInvalidDimension)
		_, err = Circulant(nil)
		require.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NegacyclicCirculant(nil, 17)
		require.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("Single", func(t *testing.T) {
		m, err := Toeplitz([]uint64{7}, 1)
		require.NoError(t, err)
		require.Equal(t, [][]uint64{{7}}, m.Rows2D())
	})

	prng, err := sampling.NewKeyedPRNG([]byte("toeplitz"))
	require.NoError(t, err)

	for _, dims := range [][2]int{{1, 1}, {1, 5}, {5, 1}, {4, 4}, {7, 3}, {16, 9}} {

		n, m := dims[0], dims[1]

		t.Run(fmt.Sprintf("Convolution/n=%d/m=%d", n, m), func(t *testing.T) {

			a := make([]uint64, n)
			b := make([]uint64, m)
			require.NoError(t, sampling.UniformVector(prng, 1<<10, a))
			require.NoError(t, sampling.UniformVector(prng, 1<<10, b))

			long, short := a, b
			if m > n {
				long, short = b, a
			}

			mat, err := Toeplitz(long, n+m-1)
			require.NoError(t, err)
			require.Equal(t, n+m-1, mat.Rows)
			require.Equal(t, len(long), mat.Cols)

			padded := make([]uint64, len(long))
			copy(padded, short)
			got, err := mat.MulVec(padded)
			require.NoError(t, err)
			require.Equal(t, polynomial.MulNaive(polynomial.New(a...), polynomial.New(b...)).Coeffs, got)
		})
	}

	for _, n := range []int{1, 2, 8, 13} {

		t.Run(fmt.Sprintf("Circulant/n=%d", n), func(t *testing.T) {

			q := uint64(97)

			a := make([]uint64, n)
			b := make([]uint64, n)
			require.NoError(t, sampling.UniformVector(prng, q, a))
			require.NoError(t, sampling.UniformVector(prng, q, b))

			prod := polynomial.MulNaiveMod(polynomial.New(a...), polynomial.New(b...), q)

			cyc, err := Circulant(a)
			require.NoError(t, err)
			got, err := cyc.MulVec(b)
			require.NoError(t, err)
			for i := range got {
				got[i] %= q
			}
			require.Equal(t, polynomial.FoldCyclic(prod, n, q).Coeffs, got)

			neg, err := NegacyclicCirculant(a, q)
			require.NoError(t, err)
			require.LessOrEqual(t, neg.Max(), q)
			got, err = neg.MulVec(b)
			require.NoError(t, err)
			for i := range got {
				got[i] %= q
			}
			require.Equal(t, polynomial.FoldNegacyclic(prod, n, q).Coeffs, got)
		})
	}
}
