// Package rns implements polynomial multiplication with large coefficients
// over a Residue Number System. Coefficients are decomposed modulo a basis
// of small coprime moduli, chosen so that every per-channel product stays
// below the exact-integer bound of the backend, the channels are multiplied
// independently by a [polymul.Engine], and the result is reconstructed with
// the Chinese Remainder Theorem.
package rns

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/rnstpu/rnstpu/polymul"
	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/ring"
	"github.com/rnstpu/rnstpu/utils"
)

// Evaluator multiplies polynomials in residue form. It is safe for
// concurrent use if its engine is.
type Evaluator struct {
	params Parameters
	engine *polymul.Engine
}

// NewEvaluator returns an evaluator dispatching the channel products to
// engine. It fails if a modulus of params is too large for the exact bound
// of the engine.
func NewEvaluator(params Parameters, engine *polymul.Engine) (*Evaluator, error) {

	if engine == nil {
		return nil, fmt.Errorf("rns.NewEvaluator: nil engine")
	}

	qMax := ring.ChannelBound(engine.ExactBound(), params.MaxLength())

	for i, qi := range params.Moduli() {
		if qi > qMax {
			return nil, fmt.Errorf("rns.NewEvaluator: modulus %d (%d) is larger than %d, the largest modulus exact on the engine for MaxLength=%d: %w", i, qi, qMax, params.MaxLength(), polymul.ErrPrecisionOverflow)
		}
	}

	return &Evaluator{params: params, engine: engine}, nil
}

// Parameters returns the parameters of the evaluator.
func (eval *Evaluator) Parameters() Parameters {
	return eval.params
}

// Decompose returns the residues of coeffs modulo each modulus of the
// basis. Negative values are mapped to their representative in [0, Q).
func (eval *Evaluator) Decompose(coeffs []*big.Int) *Poly {

	basis := eval.params.Basis()

	p := NewPoly(basis.Len(), len(coeffs))

	res := make([]uint64, basis.Len())
	for j, c := range coeffs {
		if c.Sign() >= 0 && c.IsUint64() {
			basis.DecomposeUint64(c.Uint64(), res)
		} else {
			basis.Decompose(c, res)
		}
		for i := range res {
			p.Coeffs[i][j] = res[i]
		}
	}

	return p
}

// Reconstruct returns the coefficients of p in [0, Q).
func (eval *Evaluator) Reconstruct(p *Poly) []*big.Int {
	return eval.reconstruct(p, false)
}

// ReconstructCentered returns the coefficients of p in (-Q/2, Q/2].
func (eval *Evaluator) ReconstructCentered(p *Poly) []*big.Int {
	return eval.reconstruct(p, true)
}

func (eval *Evaluator) reconstruct(p *Poly, centered bool) []*big.Int {

	basis := eval.params.Basis()

	coeffs := make([]*big.Int, p.Len())
	res := make([]uint64, basis.Len())

	for j := range coeffs {
		for i := range res {
			res[i] = p.Coeffs[i][j]
		}
		coeffs[j] = new(big.Int)
		if centered {
			basis.ReconstructCentered(res, coeffs[j])
		} else {
			basis.Reconstruct(res, coeffs[j])
		}
	}

	return coeffs
}

// MulLinear returns the linear product p0 * p1 modulo each channel modulus.
// The shorter operand must not have more than MaxLength coefficients.
func (eval *Evaluator) MulLinear(p0, p1 *Poly) (*Poly, error) {

	const op = "rns.Evaluator.MulLinear"

	if err := eval.checkOperands(op, p0, p1); err != nil {
		return nil, err
	}

	if n := utils.Min(p0.Len(), p1.Len()); n > eval.params.MaxLength() {
		return nil, fmt.Errorf("%s: %d products per coefficient exceed MaxLength=%d: %w", op, n, eval.params.MaxLength(), polymul.ErrInvalidDimension)
	}

	res := NewPoly(eval.params.Channels(), p0.Len()+p1.Len()-1)

	err := eval.forEachChannel(func(i int, qi uint64, brc [2]uint64) error {

		prod, err := eval.engine.Mul(polynomial.Polynomial{Coeffs: p0.Coeffs[i]}, polynomial.Polynomial{Coeffs: p1.Coeffs[i]})
		if err != nil {
			return fmt.Errorf("%s: channel %d (q=%d): %w", op, i, qi, err)
		}

		ring.ReduceVec(prod.Coeffs, res.Coeffs[i], qi, brc)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return res, nil
}

// MulNegacyclic returns p0 * p1 in Z_Q[X]/(X^N + 1), where N is the length
// of both operands and must not exceed MaxLength.
func (eval *Evaluator) MulNegacyclic(p0, p1 *Poly) (*Poly, error) {
	return eval.mulCirculant("rns.Evaluator.MulNegacyclic", p0, p1, eval.engine.MulNegacyclic)
}

// MulCyclic returns p0 * p1 in Z_Q[X]/(X^N - 1), where N is the length of
// both operands and must not exceed MaxLength.
func (eval *Evaluator) MulCyclic(p0, p1 *Poly) (*Poly, error) {
	return eval.mulCirculant("rns.Evaluator.MulCyclic", p0, p1, eval.engine.MulCyclic)
}

func (eval *Evaluator) mulCirculant(op string, p0, p1 *Poly, mul func(a, b polynomial.Polynomial, q uint64) (polynomial.Polynomial, error)) (*Poly, error) {

	if err := eval.checkOperands(op, p0, p1); err != nil {
		return nil, err
	}

	if p0.Len() != p1.Len() {
		return nil, fmt.Errorf("%s: operands of length %d and %d: %w", op, p0.Len(), p1.Len(), polymul.ErrInvalidDimension)
	}

	if p0.Len() > eval.params.MaxLength() {
		return nil, fmt.Errorf("%s: ring degree %d exceeds MaxLength=%d: %w", op, p0.Len(), eval.params.MaxLength(), polymul.ErrInvalidDimension)
	}

	res := NewPoly(eval.params.Channels(), p0.Len())

	err := eval.forEachChannel(func(i int, qi uint64, _ [2]uint64) error {

		prod, err := mul(polynomial.Polynomial{Coeffs: p0.Coeffs[i]}, polynomial.Polynomial{Coeffs: p1.Coeffs[i]}, qi)
		if err != nil {
			return fmt.Errorf("%s: channel %d (q=%d): %w", op, i, qi, err)
		}

		copy(res.Coeffs[i], prod.Coeffs)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return res, nil
}

// Mul returns the exact linear product of two vectors of integer
// coefficients. It fails with [polymul.ErrPrecisionOverflow] if the product
// may not be represented modulo Q: if min(n, m) * max|a| * max|b| is not
// smaller than Q, or than Q/2 when an input is negative.
func (eval *Evaluator) Mul(a, b []*big.Int) ([]*big.Int, error) {

	const op = "rns.Evaluator.Mul"

	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("%s: %w: %w", op, polymul.ErrInvalidDimension, polynomial.ErrEmpty)
	}

	maxA, signedA := maxAbs(a)
	maxB, signedB := maxAbs(b)

	bound := new(big.Int).Mul(maxA, maxB)
	bound.Mul(bound, big.NewInt(int64(utils.Min(len(a), len(b)))))

	signed := signedA || signedB
	if signed {
		bound.Lsh(bound, 1)
	}

	if Q := eval.params.Q(); bound.Cmp(Q) >= 0 {
		return nil, fmt.Errorf("%s: coefficients up to %v do not fit modulo Q=%v: %w", op, bound, Q, polymul.ErrPrecisionOverflow)
	}

	prod, err := eval.MulLinear(eval.Decompose(a), eval.Decompose(b))
	if err != nil {
		return nil, err
	}

	if signed {
		return eval.ReconstructCentered(prod), nil
	}

	return eval.Reconstruct(prod), nil
}

func (eval *Evaluator) checkOperands(op string, p0, p1 *Poly) error {

	channels := eval.params.Channels()

	for k, p := range []*Poly{p0, p1} {

		if p == nil || p.Channels() != channels {
			return fmt.Errorf("%s: operand %d does not have %d channels: %w", op, k, channels, polymul.ErrInvalidDimension)
		}

		n := p.Len()
		if n == 0 {
			return fmt.Errorf("%s: operand %d: %w: %w", op, k, polymul.ErrInvalidDimension, polynomial.ErrEmpty)
		}

		for i := range p.Coeffs {
			if len(p.Coeffs[i]) != n {
				return fmt.Errorf("%s: operand %d: channel %d has %d coefficients, expected %d: %w", op, k, i, len(p.Coeffs[i]), n, polymul.ErrInvalidDimension)
			}
		}
	}

	return nil
}

// forEachChannel runs f concurrently on every channel, with at most
// Workers goroutines, and returns the first error. Channels not yet started
// when an error occurs are skipped.
func (eval *Evaluator) forEachChannel(f func(i int, qi uint64, brc [2]uint64) error) error {

	basis := eval.params.Basis()

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(eval.engine.Parameters().Workers())

	for i := 0; i < basis.Len(); i++ {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			qi, brc := basis.At(i)
			return f(i, qi, brc)
		})
	}

	return g.Wait()
}

// maxAbs returns max|x_i| and whether some x_i is negative.
func maxAbs(x []*big.Int) (m *big.Int, negative bool) {
	m = new(big.Int)
	for _, xi := range x {
		if xi.Sign() < 0 {
			negative = true
		}
		if xi.CmpAbs(m) > 0 {
			m.Abs(xi)
		}
	}
	return
}
