package polynomial

import (
	"fmt"

	"github.com/rnstpu/rnstpu/ring"
)

// FoldCyclic reduces p modulo X^n - 1 and q: the coefficient of X^(i+kn) is
// added to the coefficient of X^i. The result has n coefficients.
func FoldCyclic(p Polynomial, n int, q uint64) Polynomial {
	return fold(p, n, q, false)
}

// FoldNegacyclic reduces p modulo X^n + 1 and q: the coefficient of X^(i+kn)
// is added to the coefficient of X^i if k is even and subtracted otherwise.
// The result has n coefficients.
func FoldNegacyclic(p Polynomial, n int, q uint64) Polynomial {
	return fold(p, n, q, true)
}

func fold(p Polynomial, n int, q uint64, negacyclic bool) Polynomial {

	if n < 1 {
		panic(fmt.Errorf("polynomial.fold: invalid ring degree %d", n))
	}

	brc := ring.GenBRedConstant(q)

	res := Zero(n)
	chunk := make([]uint64, n)

	for k, start := 0, 0; start < p.Len(); k, start = k+1, start+n {

		for i := range chunk {
			chunk[i] = 0
		}
		end := start + n
		if end > p.Len() {
			end = p.Len()
		}
		ring.ReduceVec(p.Coeffs[start:end], chunk, q, brc)

		if negacyclic && k&1 == 1 {
			ring.SubVec(res.Coeffs, chunk, res.Coeffs, q)
		} else {
			ring.AddVec(res.Coeffs, chunk, res.Coeffs, q)
		}
	}

	return res
}
