// Package ring implements residue arithmetic for polynomial coefficients:
// modular reduction, generation of small prime moduli and Residue Number
// System bases with Chinese Remainder Theorem reconstruction.
package ring

import (
	"math/big"
	"math/bits"
)

//============================
//=== MONTGOMERY REDUCTION ===
//============================

// GenMRedConstant computes the constant qInv = (q^-1) mod 2^64 required for MRed.
// q must be odd.
func GenMRedConstant(q uint64) (qInv uint64) {
	qInv = 1
	x := q
	for i := 0; i < 63; i++ {
		qInv *= x
		x *= x
	}
	return
}

// MForm returns a*2^64 mod q, for a < q.
func MForm(a, q uint64, brc [2]uint64) (r uint64) {
	return BRed(a, -q%q, q, brc)
}

// IMForm returns a*(1/2^64) mod q.
func IMForm(a, q, qInv uint64) (r uint64) {
	r, _ = bits.Mul64(a*qInv, q)
	r = q - r
	if r >= q {
		r -= q
	}
	return
}

// MRed computes x * y * (1/2^64) mod q.
// q must be odd and smaller than 2^63.
func MRed(x, y, q, qInv uint64) (r uint64) {
	ahi, alo := bits.Mul64(x, y)
	R := alo * qInv
	H, _ := bits.Mul64(R, q)
	r = ahi - H + q
	if r >= q {
		r -= q
	}
	return
}

//==========================
//=== BARRETT REDUCTION  ===
//==========================

// GenBRedConstant computes the constant floor(2^128/q), split into its
// high and low 64-bit words, required for BRed and BRedAdd.
func GenBRedConstant(q uint64) [2]uint64 {
	bigR := new(big.Int).Lsh(big.NewInt(1), 128)
	bigR.Quo(bigR, new(big.Int).SetUint64(q))

	mhi := new(big.Int).Rsh(bigR, 64).Uint64()
	mlo := bigR.Uint64()

	return [2]uint64{mhi, mlo}
}

// BRedAdd computes a mod q.
func BRedAdd(a, q uint64, brc [2]uint64) (r uint64) {
	mhi, _ := bits.Mul64(a, brc[0])
	r = a - mhi*q
	if r >= q {
		r -= q
	}
	if r >= q {
		r -= q
	}
	return
}

// BRed computes x*y mod q.
func BRed(x, y, q uint64, brc [2]uint64) (r uint64) {

	var lhi, mhi, mlo, s0, s1, carry uint64

	ahi, alo := bits.Mul64(x, y)

	// (alo*ulo)>>64

	lhi, _ = bits.Mul64(alo, brc[1])

	// ((ahi*ulo + alo*uhi) + (alo*ulo))>>64

	mhi, mlo = bits.Mul64(alo, brc[0])

	s0, carry = bits.Add64(mlo, lhi, 0)

	s1 = mhi + carry

	mhi, mlo = bits.Mul64(ahi, brc[1])

	_, carry = bits.Add64(mlo, s0, 0)

	lhi = mhi + carry

	// (ahi*uhi) + (((ahi*ulo + alo*uhi) + (alo*ulo))>>64)

	s0 = ahi*brc[0] + s1 + lhi

	r = alo - s0*q

	if r >= q {
		r -= q
	}

	return
}

//===============================
//==== CONDITIONAL REDUCTION ====
//===============================

// CRed returns a mod q, where a is required to be in the range [0, 2q-1].
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}
