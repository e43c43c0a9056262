package polynomial

import (
	"math/big"

	"github.com/rnstpu/rnstpu/ring"
)

// MulNaive returns the linear convolution of a and b computed with the
// schoolbook algorithm in O(len(a)*len(b)). The result has exactly
// len(a)+len(b)-1 coefficients. The arithmetic wraps modulo 2^64; callers
// are responsible for choosing coefficients small enough to avoid it.
func MulNaive(a, b Polynomial) Polynomial {

	res := Zero(a.Len() + b.Len() - 1)

	for i, ai := range a.Coeffs {
		if ai == 0 {
			continue
		}
		c := res.Coeffs[i : i+b.Len()]
		for j, bj := range b.Coeffs {
			c[j] += ai * bj
		}
	}

	return res
}

// MulNaiveMod returns the linear convolution of a and b modulo q.
// Odd moduli smaller than 2^63 are multiplied in the Montgomery domain,
// other moduli with Barrett reduction.
func MulNaiveMod(a, b Polynomial, q uint64) Polynomial {

	brc := ring.GenBRedConstant(q)

	ar := Zero(a.Len())
	br := Zero(b.Len())
	ring.ReduceVec(a.Coeffs, ar.Coeffs, q, brc)
	ring.ReduceVec(b.Coeffs, br.Coeffs, q, brc)

	if q&1 == 1 && q < 1<<63 {
		return mulNaiveMont(ar, br, q, brc)
	}

	res := Zero(a.Len() + b.Len() - 1)
	tmp := make([]uint64, br.Len())

	for i, ai := range ar.Coeffs {
		c := res.Coeffs[i : i+br.Len()]
		ring.MulScalarVec(br.Coeffs, ai, tmp, q, brc)
		ring.AddVec(c, tmp, c, q)
	}

	return res
}

// mulNaiveMont is MulNaiveMod for reduced operands and odd q < 2^63.
func mulNaiveMont(a, b Polynomial, q uint64, brc [2]uint64) Polynomial {

	qInv := ring.GenMRedConstant(q)

	for _, p := range []Polynomial{a, b} {
		for i := range p.Coeffs {
			p.Coeffs[i] = ring.MForm(p.Coeffs[i], q, brc)
		}
	}

	res := Zero(a.Len() + b.Len() - 1)

	for i, ai := range a.Coeffs {
		c := res.Coeffs[i : i+b.Len()]
		for j, bj := range b.Coeffs {
			c[j] = ring.CRed(c[j]+ring.MRed(ai, bj, q, qInv), q)
		}
	}

	for i := range res.Coeffs {
		res.Coeffs[i] = ring.IMForm(res.Coeffs[i], q, qInv)
	}

	return res
}

// MulNaiveBig returns the exact linear convolution of two integer
// coefficient vectors. It returns nil if one of the inputs is empty.
func MulNaiveBig(a, b []*big.Int) (res []*big.Int) {

	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	res = make([]*big.Int, len(a)+len(b)-1)
	for i := range res {
		res[i] = new(big.Int)
	}

	tmp := new(big.Int)
	for i := range a {
		for j := range b {
			res[i+j].Add(res[i+j], tmp.Mul(a[i], b[j]))
		}
	}

	return
}
