package polymul

import (
	"fmt"

	"github.com/rnstpu/rnstpu/matrix"
	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/ring"
)

// MulCyclic returns a * b in Z_q[X]/(X^N - 1), where N = len(a) = len(b).
// Coefficients are reduced modulo q before the dispatch, and the result is
// reduced modulo q.
func (e *Engine) MulCyclic(a, b polynomial.Polynomial, q uint64) (polynomial.Polynomial, error) {
	return e.mulCirculant("polymul.Engine.MulCyclic", a, b, q, false)
}

// MulNegacyclic returns a * b in Z_q[X]/(X^N + 1), where N = len(a) = len(b).
// Coefficients are reduced modulo q before the dispatch, and the result is
// reduced modulo q.
//
// The dispatch is exact if N * (q-1)^2 is smaller than the exact bound of the
// engine (see [ring.ChannelBound]).
func (e *Engine) MulNegacyclic(a, b polynomial.Polynomial, q uint64) (polynomial.Polynomial, error) {
	return e.mulCirculant("polymul.Engine.MulNegacyclic", a, b, q, true)
}

func (e *Engine) mulCirculant(op string, a, b polynomial.Polynomial, q uint64, negacyclic bool) (polynomial.Polynomial, error) {

	if err := validate(op, a, b); err != nil {
		return polynomial.Polynomial{}, err
	}

	if a.Len() != b.Len() {
		return polynomial.Polynomial{}, fmt.Errorf("%s: operands of length %d and %d: %w", op, a.Len(), b.Len(), ErrInvalidDimension)
	}

	if q < 2 {
		return polynomial.Polynomial{}, fmt.Errorf("%s: invalid modulus %d", op, q)
	}

	n := a.Len()
	brc := ring.GenBRedConstant(q)

	ar := make([]uint64, n)
	br := make([]uint64, n)
	ring.ReduceVec(a.Coeffs, ar, q, brc)
	ring.ReduceVec(b.Coeffs, br, q, brc)

	if err := e.checkInput(op, "rhs", br); err != nil {
		return polynomial.Polynomial{}, err
	}

	var m *matrix.Matrix[uint64]
	var err error
	if negacyclic {
		m, err = matrix.NegacyclicCirculant(ar, q)
	} else {
		m, err = matrix.Circulant(ar)
	}

	if err != nil {
		return polynomial.Polynomial{}, fmt.Errorf("%s: %w", op, err)
	}

	// negated entries q - c can exceed every coefficient of a
	if err := e.checkInput(op, "lhs", m.Data); err != nil {
		return polynomial.Polynomial{}, err
	}

	column, err := matrix.NewColumn(br)
	if err != nil {
		return polynomial.Polynomial{}, fmt.Errorf("%s: %w", op, err)
	}

	out, err := e.dispatch(op, m, column)
	if err != nil {
		return polynomial.Polynomial{}, err
	}

	res := polynomial.Zero(n)
	ring.ReduceVec(out.Data, res.Coeffs, q, brc)

	return res, nil
}
