package matrix

import (
	"fmt"

	"github.com/rnstpu/rnstpu/ring"
)

// Toeplitz returns the resultLength x len(coeffs) convolution matrix of the
// polynomial with the given coefficients: element (i, j) is coeffs[i-j] if
// 0 <= i-j < len(coeffs) and 0 otherwise. Multiplying it by the coefficient
// vector of a second polynomial of length resultLength-len(coeffs)+1 (zero
// padded to len(coeffs) if shorter) yields their linear convolution.
//
// It returns ErrInvalidDimension if coeffs is empty or if resultLength < len(coeffs).
func Toeplitz(coeffs []uint64, resultLength int) (*Matrix[uint64], error) {

	n := len(coeffs)

	if n == 0 {
		return nil, fmt.Errorf("matrix.Toeplitz: empty polynomial: %w", ErrInvalidDimension)
	}

	if resultLength < n {
		return nil, fmt.Errorf("matrix.Toeplitz: result length %d smaller than polynomial length %d: %w", resultLength, n, ErrInvalidDimension)
	}

	m := &Matrix[uint64]{Rows: resultLength, Cols: n, Data: make([]uint64, resultLength*n)}

	for i := 0; i < resultLength; i++ {
		row := m.Row(i)
		// j ranges over max(0, i-n+1) <= j <= min(i, n-1)
		lo := i - n + 1
		if lo < 0 {
			lo = 0
		}
		hi := i
		if hi > n-1 {
			hi = n - 1
		}
		for j := lo; j <= hi; j++ {
			row[j] = coeffs[i-j]
		}
	}

	return m, nil
}

// Circulant returns the N x N matrix of the multiplication by the
// polynomial in Z[X]/(X^N - 1), with N = len(coeffs): element (i, j) is
// coeffs[(i-j) mod N].
func Circulant(coeffs []uint64) (*Matrix[uint64], error) {

	n := len(coeffs)

	if n == 0 {
		return nil, fmt.Errorf("matrix.Circulant: empty polynomial: %w", ErrInvalidDimension)
	}

	m := &Matrix[uint64]{Rows: n, Cols: n, Data: make([]uint64, n*n)}

	for i := 0; i < n; i++ {
		row := m.Row(i)
		copy(row[:i+1], reversed(coeffs[:i+1]))
		copy(row[i+1:], reversed(coeffs[i+1:]))
	}

	return m, nil
}

// NegacyclicCirculant returns the N x N matrix of the multiplication by the
// polynomial in Z_q[X]/(X^N + 1), with N = len(coeffs): element (i, j) is
// coeffs[i-j] mod q if i >= j and -coeffs[N+i-j] mod q otherwise. Negated
// elements are represented by q - c so that all elements stay in [0, q-1].
// Coefficients must already be reduced modulo q.
func NegacyclicCirculant(coeffs []uint64, q uint64) (*Matrix[uint64], error) {

	n := len(coeffs)

	if n == 0 {
		return nil, fmt.Errorf("matrix.NegacyclicCirculant: empty polynomial: %w", ErrInvalidDimension)
	}

	m := &Matrix[uint64]{Rows: n, Cols: n, Data: make([]uint64, n*n)}

	for i := 0; i < n; i++ {
		row := m.Row(i)
		copy(row[:i+1], reversed(coeffs[:i+1]))
		ring.NegVec(reversed(coeffs[i+1:]), row[i+1:], q)
	}

	return m, nil
}

func reversed(s []uint64) (r []uint64) {
	r = make([]uint64, len(s))
	for i := range s {
		r[len(s)-1-i] = s[i]
	}
	return
}
