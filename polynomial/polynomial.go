// Package polynomial implements polynomials with unsigned integer coefficients,
// the schoolbook multiplication used as a reference for the accelerated
// engines, and reductions modulo X^N-1 and X^N+1.
package polynomial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rnstpu/rnstpu/utils"
)

// ErrEmpty is returned when a polynomial without coefficient is created or decoded.
var ErrEmpty = errors.New("polynomial has no coefficient")

// Polynomial is a polynomial with unsigned integer coefficients, stored
// lowest degree first: Coeffs[i] is the coefficient of X^i. Its degree is
// len(Coeffs)-1; leading zero coefficients are kept.
type Polynomial struct {
	Coeffs []uint64
}

// NewPolynomial returns a polynomial with a copy of coeffs.
func NewPolynomial(coeffs []uint64) (p Polynomial, err error) {
	if len(coeffs) == 0 {
		return Polynomial{}, ErrEmpty
	}
	p.Coeffs = make([]uint64, len(coeffs))
	copy(p.Coeffs, coeffs)
	return
}

// New returns a polynomial with the given coefficients, lowest degree first.
// It panics if no coefficient is given.
func New(coeffs ...uint64) Polynomial {
	p, err := NewPolynomial(coeffs)
	if err != nil {
		panic(fmt.Errorf("polynomial.New: %w", err))
	}
	return p
}

// Zero returns the polynomial with n zero coefficients.
func Zero(n int) Polynomial {
	if n < 1 {
		panic(fmt.Errorf("polynomial.Zero: %w", ErrEmpty))
	}
	return Polynomial{Coeffs: make([]uint64, n)}
}

// Len returns the number of coefficients of the polynomial.
func (p Polynomial) Len() int {
	return len(p.Coeffs)
}

// Degree returns Len()-1.
func (p Polynomial) Degree() int {
	return len(p.Coeffs) - 1
}

// Validate returns ErrEmpty if the polynomial has no coefficient.
func (p Polynomial) Validate() error {
	if len(p.Coeffs) == 0 {
		return ErrEmpty
	}
	return nil
}

// CopyNew returns a deep copy of the polynomial.
func (p Polynomial) CopyNew() Polynomial {
	coeffs := make([]uint64, len(p.Coeffs))
	copy(coeffs, p.Coeffs)
	return Polynomial{Coeffs: coeffs}
}

// Max returns the largest coefficient.
func (p Polynomial) Max() uint64 {
	return utils.MaxSlice(p.Coeffs)
}

// IsZero returns true if all coefficients are zero.
func (p Polynomial) IsZero() bool {
	for _, c := range p.Coeffs {
		if c != 0 {
			return false
		}
	}
	return true
}

// Equal returns true if both polynomials have the same length and coefficients.
func (p Polynomial) Equal(other Polynomial) bool {
	if len(p.Coeffs) != len(other.Coeffs) {
		return false
	}
	for i := range p.Coeffs {
		if p.Coeffs[i] != other.Coeffs[i] {
			return false
		}
	}
	return true
}

// String returns the coefficients as a bracketed list, e.g. [5 16 34].
func (p Polynomial) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range p.Coeffs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", c)
	}
	sb.WriteByte(']')
	return sb.String()
}

// ApproxEqual returns true if |a_i - b_i| <= epsilon for every i, the
// shorter polynomial being implicitly padded with zeros.
func ApproxEqual(a, b Polynomial, epsilon float64) bool {
	n := utils.Max(a.Len(), b.Len())
	for i := 0; i < n; i++ {
		var ai, bi uint64
		if i < a.Len() {
			ai = a.Coeffs[i]
		}
		if i < b.Len() {
			bi = b.Coeffs[i]
		}
		if float64(utils.AbsDiff(ai, bi)) > epsilon {
			return false
		}
	}
	return true
}
