package rns

import (
	"github.com/google/go-cmp/cmp"
)

// Poly is a polynomial in residue form: Coeffs[i] holds the coefficients
// of the polynomial modulo the i-th modulus of the basis.
type Poly struct {
	Coeffs [][]uint64
}

// NewPoly allocates a zero polynomial of n coefficients over the given number of channels.
func NewPoly(channels, n int) *Poly {
	coeffs := make([][]uint64, channels)
	for i := range coeffs {
		coeffs[i] = make([]uint64, n)
	}
	return &Poly{Coeffs: coeffs}
}

// Channels returns the number of channels.
func (p *Poly) Channels() int {
	return len(p.Coeffs)
}

// Len returns the number of coefficients.
func (p *Poly) Len() int {
	if len(p.Coeffs) == 0 {
		return 0
	}
	return len(p.Coeffs[0])
}

// CopyNew returns a deep copy of the polynomial.
func (p *Poly) CopyNew() *Poly {
	q := NewPoly(p.Channels(), p.Len())
	for i := range p.Coeffs {
		copy(q.Coeffs[i], p.Coeffs[i])
	}
	return q
}

// Equal returns true if both polynomials hold the same residues.
func (p *Poly) Equal(other *Poly) bool {
	return cmp.Equal(p.Coeffs, other.Coeffs)
}
