// Package polymul implements polynomial multiplication as dense matrix
// multiplication. The convolution of two polynomials is the product of the
// Toeplitz matrix of one operand with the coefficient vector of the other,
// which is dispatched to a [backend.Backend], typically an accelerator
// computing in limited-precision floating point. Every value entering and
// leaving the backend is checked against the exact-integer bound of its
// arithmetic, so a result is either bit-exact or an error.
package polymul

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/matrix"
	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/utils"
)

// Engine multiplies polynomials through a matrix-multiplication backend.
// It is safe for concurrent use if its backend is.
type Engine struct {
	params  Parameters
	backend backend.Backend
	logger  zerolog.Logger
}

// NewEngine returns an engine dispatching to bk. The backend must have been
// set up by the caller, who remains responsible for releasing it.
func NewEngine(params Parameters, bk backend.Backend) (*Engine, error) {
	if bk == nil {
		return nil, fmt.Errorf("polymul.NewEngine: nil backend")
	}
	return &Engine{params: params, backend: bk, logger: zerolog.Nop()}, nil
}

// WithLogger returns a shallow copy of the engine logging to logger.
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	return &Engine{params: e.params, backend: e.backend, logger: logger}
}

// Parameters returns the parameters of the engine.
func (e *Engine) Parameters() Parameters {
	return e.params
}

// Backend returns the backend of the engine.
func (e *Engine) Backend() backend.Backend {
	return e.backend
}

// ExactBound returns the bound that every input and output value of a
// dispatch must stay strictly below: the exact bound of the backend, or the
// one of the parameters if it is smaller.
func (e *Engine) ExactBound() uint64 {
	bound := e.backend.ExactBound()
	if b := e.params.ExactBound(); b != 0 && b < bound {
		bound = b
	}
	return bound
}

// Mul returns the linear product a * b, of length len(a) + len(b) - 1.
// With the [Longest] policy the convolution matrix is built from the longer
// operand and the other one is zero padded to its width. With the [Strict]
// policy it is always built from a, and b must not be longer than a.
//
// The result is bit-exact, or one of [ErrInvalidDimension], [ErrBackend] or
// [ErrPrecisionOverflow] is returned.
func (e *Engine) Mul(a, b polynomial.Polynomial) (polynomial.Polynomial, error) {

	const op = "polymul.Engine.Mul"

	if err := validate(op, a, b); err != nil {
		return polynomial.Polynomial{}, err
	}

	if a.Len() < b.Len() {
		if e.params.OperandPolicy() == Strict {
			return polynomial.Polynomial{}, fmt.Errorf("%s: right operand of length %d is longer than left operand of length %d: %w", op, b.Len(), a.Len(), ErrInvalidDimension)
		}
		a, b = b, a
	}

	res, err := e.mulMany(op, a, []polynomial.Polynomial{b})
	if err != nil {
		return polynomial.Polynomial{}, err
	}

	return res[0], nil
}

// MulMany returns the linear products a * bs[i] with a single backend
// dispatch: the convolution matrix of a is multiplied by the matrix whose
// columns are the coefficient vectors of bs. All bs must have the same length.
// With the [Strict] policy that length must not exceed len(a); with the
// [Longest] policy a is zero padded to it instead.
func (e *Engine) MulMany(a polynomial.Polynomial, bs []polynomial.Polynomial) ([]polynomial.Polynomial, error) {

	const op = "polymul.Engine.MulMany"

	if len(bs) == 0 {
		return nil, fmt.Errorf("%s: no right operand: %w", op, ErrInvalidDimension)
	}

	if err := validate(op, append([]polynomial.Polynomial{a}, bs...)...); err != nil {
		return nil, err
	}

	m := bs[0].Len()
	for i := range bs {
		if bs[i].Len() != m {
			return nil, fmt.Errorf("%s: right operand %d has length %d, expected %d: %w", op, i, bs[i].Len(), m, ErrInvalidDimension)
		}
	}

	if m > a.Len() && e.params.OperandPolicy() == Strict {
		return nil, fmt.Errorf("%s: right operands of length %d are longer than left operand of length %d: %w", op, m, a.Len(), ErrInvalidDimension)
	}

	return e.mulMany(op, a, bs)
}

// mulMany computes the products a * bs[i], with all bs of the same length.
func (e *Engine) mulMany(op string, a polynomial.Polynomial, bs []polynomial.Polynomial) ([]polynomial.Polynomial, error) {

	n, m := a.Len(), bs[0].Len()

	if err := e.checkInput(op, "lhs", a.Coeffs); err != nil {
		return nil, err
	}

	for _, b := range bs {
		if err := e.checkInput(op, "rhs", b.Coeffs); err != nil {
			return nil, err
		}
	}

	width := utils.Max(n, m)

	resultLength := n + m - 1

	toeplitz, err := matrix.Toeplitz(utils.Resize(a.Coeffs, width), resultLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vectors := &matrix.Matrix[uint64]{Rows: width, Cols: len(bs), Data: make([]uint64, width*len(bs))}
	for j, b := range bs {
		for i, c := range b.Coeffs {
			vectors.Data[i*vectors.Cols+j] = c
		}
	}

	out, err := e.dispatch(op, toeplitz, vectors)
	if err != nil {
		return nil, err
	}

	res := make([]polynomial.Polynomial, len(bs))
	for j := range res {
		res[j] = polynomial.Polynomial{Coeffs: out.Col(j)}
	}

	return res, nil
}

// MatMul returns the integer product a * b computed by the backend, with
// the same precision checks as [Engine.Mul].
func (e *Engine) MatMul(a, b *matrix.Matrix[uint64]) (*matrix.Matrix[uint64], error) {

	const op = "polymul.Engine.MatMul"

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: left operand: %w", op, err)
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: right operand: %w", op, err)
	}

	if a.Cols != b.Rows {
		return nil, fmt.Errorf("%s: %dx%d times %dx%d: %w", op, a.Rows, a.Cols, b.Rows, b.Cols, ErrInvalidDimension)
	}

	if err := e.checkInput(op, "lhs", a.Data); err != nil {
		return nil, err
	}

	if err := e.checkInput(op, "rhs", b.Data); err != nil {
		return nil, err
	}

	return e.dispatch(op, a, b)
}

// dispatch sends a * b to the backend and converts the result back to
// integers. Inputs must have been checked against the exact bound.
func (e *Engine) dispatch(op string, a, b *matrix.Matrix[uint64]) (*matrix.Matrix[uint64], error) {

	e.logger.Debug().
		Str("op", op).
		Str("backend", e.backend.Name()).
		Int("rows", a.Rows).
		Int("inner", a.Cols).
		Int("cols", b.Cols).
		Msg("dispatch")

	out, err := e.backend.MatMul(matrix.Convert[float64](a), matrix.Convert[float64](b))
	if err != nil {
		return nil, &BackendError{Backend: e.backend.Name(), Op: op, Err: err}
	}

	if out == nil || out.Rows != a.Rows || out.Cols != b.Cols || len(out.Data) != a.Rows*b.Cols {
		var shape string
		if out == nil {
			shape = "nil"
		} else {
			shape = fmt.Sprintf("%dx%d with %d elements", out.Rows, out.Cols, len(out.Data))
		}
		return nil, &BackendError{
			Backend: e.backend.Name(),
			Op:      op,
			Err:     fmt.Errorf("returned %s grid, expected %dx%d: %w", shape, a.Rows, b.Cols, ErrInvalidDimension),
		}
	}

	bound := e.ExactBound()
	fbound := float64(bound)

	res := &matrix.Matrix[uint64]{Rows: out.Rows, Cols: out.Cols, Data: make([]uint64, len(out.Data))}

	for i, v := range out.Data {

		if math.IsNaN(v) || math.IsInf(v, 0) || v < -0.5 {
			return nil, &BackendError{
				Backend: e.backend.Name(),
				Op:      op,
				Err:     fmt.Errorf("invalid output[%d] = %v", i, v),
			}
		}

		// Rounding is monotone and all entries are non-negative, so the
		// computed value reaches the bound iff the exact one does.
		if v >= fbound {
			e.logger.Debug().Str("op", op).Int("index", i).Float64("value", v).Uint64("bound", bound).Msg("precision overflow")
			return nil, &PrecisionOverflowError{Op: op, Operand: "output", Index: i, Value: v, Bound: bound}
		}

		if v > 0 {
			res.Data[i] = uint64(math.Round(v))
		}
	}

	return res, nil
}

// checkInput returns a [*PrecisionOverflowError] if a value reaches the exact bound.
func (e *Engine) checkInput(op, operand string, values []uint64) error {
	bound := e.ExactBound()
	for i, v := range values {
		if v >= bound {
			return &PrecisionOverflowError{Op: op, Operand: operand, Index: i, Value: float64(v), Bound: bound}
		}
	}
	return nil
}

func validate(op string, ps ...polynomial.Polynomial) error {
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: operand %d: %w: %w", op, i, ErrInvalidDimension, err)
		}
	}
	return nil
}
