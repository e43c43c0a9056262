package polymul

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/backend/cpu"
	"github.com/rnstpu/rnstpu/backend/gonum"
	"github.com/rnstpu/rnstpu/backend/parallel"
	"github.com/rnstpu/rnstpu/matrix"
	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/utils/sampling"
)

func testString(opname string, e *Engine) string {
	return fmt.Sprintf("%s/backend=%s/bound=%d/policy=%s", opname, e.Backend().Name(), e.ExactBound(), e.Parameters().OperandPolicy())
}

func newTestEngine(t *testing.T, pl ParametersLiteral, bk backend.Backend) *Engine {
	params, err := NewParametersFromLiteral(pl)
	require.NoError(t, err)
	require.NoError(t, bk.SetupContext())
	t.Cleanup(func() { require.NoError(t, bk.Release()) })
	e, err := NewEngine(params, bk)
	require.NoError(t, err)
	return e
}

func randomPolynomial(t *testing.T, prng sampling.PRNG, n int, bound uint64) polynomial.Polynomial {
	p := polynomial.Zero(n)
	require.NoError(t, sampling.UniformVector(prng, bound, p.Coeffs))
	return p
}

func TestEngine(t *testing.T) {

	prng, err := sampling.NewKeyedPRNG([]byte("polymul"))
	require.NoError(t, err)

	engines := []*Engine{
		newTestEngine(t, ParametersLiteral{}, cpu.New()),
		newTestEngine(t, ParametersLiteral{Workers: 4}, parallel.New(4)),
		newTestEngine(t, ParametersLiteral{}, gonum.New()),
		newTestEngine(t, ParametersLiteral{OperandPolicy: Strict}, cpu.New()),
	}

	for _, e := range engines {
		testMul(t, prng, e)
		testMulMany(t, prng, e)
		testMulBatch(t, prng, e)
		testMulCirculant(t, prng, e)
		testMatMul(t, e)
	}
}

func testMul(t *testing.T, prng sampling.PRNG, e *Engine) {

	t.Run(testString("Mul/Example", e), func(t *testing.T) {
		a := polynomial.New(1, 2, 3, 4)
		b := polynomial.New(5, 6, 7)
		want := []uint64{5, 16, 34, 52, 45, 28}

		require.Equal(t, want, polynomial.MulNaive(a, b).Coeffs)

		have, err := e.Mul(a, b)
		require.NoError(t, err)
		require.Equal(t, want, have.Coeffs)
		require.True(t, polynomial.ApproxEqual(have, polynomial.MulNaive(a, b), 0))
	})

	t.Run(testString("Mul/Asymmetric", e), func(t *testing.T) {
		a := polynomial.New(5, 6, 7)
		b := polynomial.New(1, 2, 3, 4)

		have, err := e.Mul(a, b)

		if e.Parameters().OperandPolicy() == Strict {
			require.ErrorIs(t, err, ErrInvalidDimension)
			return
		}

		require.NoError(t, err)
		require.Equal(t, []uint64{5, 16, 34, 52, 45, 28}, have.Coeffs)
	})

	t.Run(testString("Mul/Empty", e), func(t *testing.T) {
		_, err := e.Mul(polynomial.Polynomial{}, polynomial.New(1))
		require.ErrorIs(t, err, ErrInvalidDimension)
		require.ErrorIs(t, err, polynomial.ErrEmpty)
	})

	t.Run(testString("Mul/IdentityAndZero", e), func(t *testing.T) {
		a := randomPolynomial(t, prng, 17, 1<<10)

		have, err := e.Mul(a, polynomial.New(1))
		require.NoError(t, err)
		require.True(t, a.Equal(have))

		have, err = e.Mul(a, polynomial.New(0))
		require.NoError(t, err)
		require.Equal(t, a.Len(), have.Len())
		require.True(t, have.IsZero())
	})

	for _, dims := range [][2]int{{1, 1}, {16, 16}, {64, 3}, {3, 64}, {128, 127}} {

		n, m := dims[0], dims[1]

		t.Run(testString(fmt.Sprintf("Mul/Naive/n=%d/m=%d", n, m), e), func(t *testing.T) {

			// 128 * (2^8)^2 < 2^24
			a := randomPolynomial(t, prng, n, 1<<8)
			b := randomPolynomial(t, prng, m, 1<<8)

			have, err := e.Mul(a, b)

			if m > n && e.Parameters().OperandPolicy() == Strict {
				require.ErrorIs(t, err, ErrInvalidDimension)
				return
			}

			require.NoError(t, err)
			require.Equal(t, n+m-1, have.Len())
			require.Equal(t, polynomial.MulNaive(a, b).Coeffs, have.Coeffs)
		})
	}

	t.Run(testString("Mul/PrecisionOverflow", e), func(t *testing.T) {

		bound := e.ExactBound()

		// largest exact product below the bound
		if bound == backend.Float32ExactBound {
			have, err := e.Mul(polynomial.New(4097), polynomial.New(4095))
			require.NoError(t, err)
			require.Equal(t, []uint64{4097 * 4095}, have.Coeffs)

			_, err = e.Mul(polynomial.New(4096), polynomial.New(4096))
			var perr *PrecisionOverflowError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, "output", perr.Operand)
			require.Equal(t, 0, perr.Index)
			require.Equal(t, bound, perr.Bound)

			// sums of in-range products
			a := polynomial.New(1<<12, 1<<12, 1<<12, 1<<12)
			_, err = e.Mul(a, polynomial.New(1<<11, 1<<11, 1<<11, 1<<11))
			require.ErrorIs(t, err, ErrPrecisionOverflow)
		}

		_, err := e.Mul(polynomial.New(1, bound), polynomial.New(1))
		var perr *PrecisionOverflowError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, 1, perr.Index)
		require.NotEqual(t, "output", perr.Operand)

		_, err = e.Mul(polynomial.New(math.MaxUint64), polynomial.New(1))
		require.ErrorIs(t, err, ErrPrecisionOverflow)
		require.False(t, errors.Is(err, ErrBackend))
	})
}

func testMulMany(t *testing.T, prng sampling.PRNG, e *Engine) {

	t.Run(testString("MulMany", e), func(t *testing.T) {

		a := randomPolynomial(t, prng, 9, 1<<10)

		for _, m := range []int{1, 5, 9, 12} {

			bs := make([]polynomial.Polynomial, 4)
			for i := range bs {
				bs[i] = randomPolynomial(t, prng, m, 1<<10)
			}

			have, err := e.MulMany(a, bs)

			if m > a.Len() && e.Parameters().OperandPolicy() == Strict {
				require.ErrorIs(t, err, ErrInvalidDimension)
				continue
			}

			require.NoError(t, err)
			require.Len(t, have, len(bs))
			for i := range bs {
				require.Equal(t, polynomial.MulNaive(a, bs[i]).Coeffs, have[i].Coeffs)
			}
		}

		_, err := e.MulMany(a, nil)
		require.ErrorIs(t, err, ErrInvalidDimension)

		_, err = e.MulMany(a, []polynomial.Polynomial{polynomial.New(1, 2), polynomial.New(1)})
		require.ErrorIs(t, err, ErrInvalidDimension)
	})
}

func testMulBatch(t *testing.T, prng sampling.PRNG, e *Engine) {

	t.Run(testString("MulBatch", e), func(t *testing.T) {

		as := make([]polynomial.Polynomial, 23)
		bs := make([]polynomial.Polynomial, len(as))
		for i := range as {
			as[i] = randomPolynomial(t, prng, 8+i, 1<<8)
			bs[i] = randomPolynomial(t, prng, 8, 1<<8)
		}

		have, err := e.MulBatch(as, bs)
		require.NoError(t, err)
		for i := range as {
			require.Equal(t, polynomial.MulNaive(as[i], bs[i]).Coeffs, have[i].Coeffs)
		}

		_, err = e.MulBatch(as, bs[1:])
		require.ErrorIs(t, err, ErrInvalidDimension)

		bs[7] = polynomial.New(e.ExactBound())
		_, err = e.MulBatch(as, bs)
		require.ErrorIs(t, err, ErrPrecisionOverflow)
	})
}

func testMulCirculant(t *testing.T, prng sampling.PRNG, e *Engine) {

	for _, q := range []uint64{2, 97, 257} {

		for _, n := range []int{1, 8, 64} {

			t.Run(testString(fmt.Sprintf("MulCirculant/N=%d/q=%d", n, q), e), func(t *testing.T) {

				// coefficients are not reduced
				a := randomPolynomial(t, prng, n, 1<<16)
				b := randomPolynomial(t, prng, n, 1<<16)

				want := polynomial.MulNaiveMod(a, b, q)

				have, err := e.MulNegacyclic(a, b, q)
				require.NoError(t, err)
				require.Equal(t, polynomial.FoldNegacyclic(want, n, q).Coeffs, have.Coeffs)

				have, err = e.MulCyclic(a, b, q)
				require.NoError(t, err)
				require.Equal(t, polynomial.FoldCyclic(want, n, q).Coeffs, have.Coeffs)
			})
		}
	}

	t.Run(testString("MulCirculant/Errors", e), func(t *testing.T) {

		_, err := e.MulNegacyclic(polynomial.New(1, 2), polynomial.New(1), 17)
		require.ErrorIs(t, err, ErrInvalidDimension)

		_, err = e.MulCyclic(polynomial.New(1), polynomial.New(1), 1)
		require.Error(t, err)

		// 64 * 65536^2 exceeds 2^24 but not 2^53
		a := polynomial.Zero(64)
		b := polynomial.Zero(64)
		for i := range a.Coeffs {
			a.Coeffs[i] = 65536
			b.Coeffs[i] = 65536
		}

		_, err = e.MulNegacyclic(a, b, 65537)
		if e.ExactBound() == backend.Float32ExactBound {
			require.ErrorIs(t, err, ErrPrecisionOverflow)
		} else {
			require.NoError(t, err)
		}
	})
}

func testMatMul(t *testing.T, e *Engine) {

	t.Run(testString("MatMul", e), func(t *testing.T) {

		a, err := matrix.NewMatrixFromRows([][]uint64{{1, 2}, {3, 4}})
		require.NoError(t, err)
		b, err := matrix.NewMatrixFromRows([][]uint64{{5, 6}, {7, 8}})
		require.NoError(t, err)

		c, err := e.MatMul(a, b)
		require.NoError(t, err)
		require.Equal(t, [][]uint64{{19, 22}, {43, 50}}, c.Rows2D())

		v, err := matrix.NewColumn([]uint64{1, 2, 3})
		require.NoError(t, err)
		_, err = e.MatMul(a, v)
		require.ErrorIs(t, err, ErrInvalidDimension)

		b.Set(1, 1, e.ExactBound())
		_, err = e.MatMul(a, b)
		var perr *PrecisionOverflowError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "rhs", perr.Operand)
		require.Equal(t, 3, perr.Index)
	})
}

func TestProperties(t *testing.T) {

	bk := cpu.New()
	e := newTestEngine(t, ParametersLiteral{}, bk)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// at most 100 coefficients below 2^8 keep every output below 2^24
	coeffs := gen.SliceOf(gen.UInt64Range(0, 255)).Map(func(c []uint64) []uint64 {
		if len(c) == 0 {
			return []uint64{0}
		}
		return c
	})

	properties.Property("Mul matches MulNaive", prop.ForAll(
		func(a, b []uint64) bool {
			pa, pb := polynomial.New(a...), polynomial.New(b...)
			have, err := e.Mul(pa, pb)
			return err == nil && have.Equal(polynomial.MulNaive(pa, pb))
		},
		coeffs, coeffs,
	))

	properties.Property("Mul has length n+m-1", prop.ForAll(
		func(a, b []uint64) bool {
			have, err := e.Mul(polynomial.New(a...), polynomial.New(b...))
			return err == nil && have.Len() == len(a)+len(b)-1
		},
		coeffs, coeffs,
	))

	properties.Property("Mul is commutative", prop.ForAll(
		func(a, b []uint64) bool {
			ab, err := e.Mul(polynomial.New(a...), polynomial.New(b...))
			if err != nil {
				return false
			}
			ba, err := e.Mul(polynomial.New(b...), polynomial.New(a...))
			return err == nil && ab.Equal(ba)
		},
		coeffs, coeffs,
	))

	properties.Property("Mul by zero is zero", prop.ForAll(
		func(a []uint64) bool {
			have, err := e.Mul(polynomial.New(0), polynomial.New(a...))
			return err == nil && have.IsZero()
		},
		coeffs,
	))

	properties.TestingRun(t)
}

func TestParameters(t *testing.T) {

	t.Run("JSON", func(t *testing.T) {
		params, err := NewParametersFromLiteral(ParametersLiteral{ExactBound: 1 << 20, OperandPolicy: Strict, Workers: 3})
		require.NoError(t, err)

		data, err := json.Marshal(params)
		require.NoError(t, err)
		require.JSONEq(t, `{"ExactBound":1048576,"OperandPolicy":"strict","Workers":3}`, string(data))

		var other Parameters
		require.NoError(t, json.Unmarshal(data, &other))
		require.True(t, params.Equal(&other))

		require.Error(t, json.Unmarshal([]byte(`{"OperandPolicy":"shortest"}`), &other))
	})

	t.Run("Defaults", func(t *testing.T) {
		params := DefaultParameters()
		require.Equal(t, uint64(0), params.ExactBound())
		require.Equal(t, Longest, params.OperandPolicy())
		require.GreaterOrEqual(t, params.Workers(), 1)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, pl := range []ParametersLiteral{
			{ExactBound: 1},
			{Workers: -1},
			{OperandPolicy: OperandPolicy(7)},
		} {
			_, err := NewParametersFromLiteral(pl)
			require.Error(t, err)
		}
	})

	t.Run("ZeroValue", func(t *testing.T) {
		var params Parameters
		require.Equal(t, 1, params.Workers())

		bk := cpu.New()
		require.NoError(t, bk.SetupContext())
		defer bk.Release()

		e, err := NewEngine(params, bk)
		require.NoError(t, err)

		var have []polynomial.Polynomial
		done := make(chan struct{})
		go func() {
			defer close(done)
			have, err = e.MulBatch([]polynomial.Polynomial{polynomial.New(1), polynomial.New(2, 3)}, []polynomial.Polynomial{polynomial.New(2), polynomial.New(4)})
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatal("MulBatch did not return")
		}

		require.NoError(t, err)
		require.Equal(t, []uint64{2}, have[0].Coeffs)
		require.Equal(t, []uint64{8, 12}, have[1].Coeffs)
	})

	t.Run("ExactBound", func(t *testing.T) {
		e := newTestEngine(t, ParametersLiteral{ExactBound: 1000}, gonum.New())
		require.Equal(t, uint64(1000), e.ExactBound())

		have, err := e.Mul(polynomial.New(10, 10), polynomial.New(10, 10))
		require.NoError(t, err)
		require.Equal(t, []uint64{100, 200, 100}, have.Coeffs)

		_, err = e.Mul(polynomial.New(30), polynomial.New(34))
		require.ErrorIs(t, err, ErrPrecisionOverflow)

		// a bound above the one of the backend does not raise it
		e = newTestEngine(t, ParametersLiteral{ExactBound: 1 << 30}, cpu.New())
		require.Equal(t, backend.Float32ExactBound, e.ExactBound())
	})
}

// faultyBackend is an in-memory backend returning a predetermined result.
type faultyBackend struct {
	out   *matrix.Matrix[float64]
	err   error
	calls atomic.Int32
}

func (f *faultyBackend) SetupContext() error { return nil }
func (f *faultyBackend) ExactBound() uint64  { return backend.Float32ExactBound }
func (f *faultyBackend) Name() string        { return "faulty" }
func (f *faultyBackend) Release() error      { return nil }

func (f *faultyBackend) MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error) {
	f.calls.Add(1)
	return f.out, f.err
}

func TestBackendError(t *testing.T) {

	errDevice := errors.New("device unavailable")

	for _, tc := range []struct {
		name string
		bk   *faultyBackend
	}{
		{"Failure", &faultyBackend{err: errDevice}},
		{"Nil", &faultyBackend{}},
		{"Shape", &faultyBackend{out: &matrix.Matrix[float64]{Rows: 2, Cols: 1, Data: []float64{1, 2}}}},
		{"NaN", &faultyBackend{out: &matrix.Matrix[float64]{Rows: 3, Cols: 1, Data: []float64{1, math.NaN(), 2}}}},
		{"Inf", &faultyBackend{out: &matrix.Matrix[float64]{Rows: 3, Cols: 1, Data: []float64{1, 2, math.Inf(1)}}}},
		{"Negative", &faultyBackend{out: &matrix.Matrix[float64]{Rows: 3, Cols: 1, Data: []float64{-1, 2, 3}}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, ParametersLiteral{}, tc.bk)

			have, err := e.Mul(polynomial.New(1, 2), polynomial.New(3, 4))
			require.ErrorIs(t, err, ErrBackend)
			require.False(t, errors.Is(err, ErrPrecisionOverflow))
			require.Equal(t, 0, have.Len())

			var berr *BackendError
			require.ErrorAs(t, err, &berr)
			require.Equal(t, "faulty", berr.Backend)

			if tc.bk.err != nil {
				require.ErrorIs(t, err, errDevice)
			}
		})
	}

	t.Run("NegativeZero", func(t *testing.T) {
		e := newTestEngine(t, ParametersLiteral{}, &faultyBackend{out: &matrix.Matrix[float64]{Rows: 3, Cols: 1, Data: []float64{-0.25, 2, 3}}})
		have, err := e.Mul(polynomial.New(1, 2), polynomial.New(3, 4))
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 2, 3}, have.Coeffs)
	})

	t.Run("NilBackend", func(t *testing.T) {
		_, err := NewEngine(DefaultParameters(), nil)
		require.Error(t, err)
	})

	t.Run("BatchStopsAfterFirstError", func(t *testing.T) {
		bk := &faultyBackend{err: errDevice}
		e := newTestEngine(t, ParametersLiteral{Workers: 1}, bk)

		as := make([]polynomial.Polynomial, 16)
		bs := make([]polynomial.Polynomial, len(as))
		for i := range as {
			as[i] = polynomial.New(1, 2)
			bs[i] = polynomial.New(3, 4)
		}

		have, err := e.MulBatch(as, bs)
		require.ErrorIs(t, err, errDevice)
		require.Nil(t, have)
		require.Equal(t, int32(1), bk.calls.Load())
	})
}

func TestLogger(t *testing.T) {

	var buf bytes.Buffer

	e := newTestEngine(t, ParametersLiteral{}, cpu.New()).WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	_, err := e.Mul(polynomial.New(1, 2, 3), polynomial.New(4, 5))
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"dispatch"`)
	require.Contains(t, buf.String(), `"backend":"cpu"`)

	buf.Reset()
	_, err = e.Mul(polynomial.New(4096), polynomial.New(4096))
	require.ErrorIs(t, err, ErrPrecisionOverflow)
	require.Contains(t, buf.String(), "precision overflow")
}

func BenchmarkMul(b *testing.B) {

	prng, err := sampling.NewKeyedPRNG([]byte("polymul"))
	require.NoError(b, err)

	for _, bk := range []backend.Backend{cpu.New(), parallel.New(0), gonum.New()} {

		require.NoError(b, bk.SetupContext())

		params := DefaultParameters()
		e, err := NewEngine(params, bk)
		require.NoError(b, err)

		for _, n := range []int{64, 256, 1024} {

			pa := polynomial.Zero(n)
			pb := polynomial.Zero(n)
			require.NoError(b, sampling.UniformVector(prng, 1<<7, pa.Coeffs))
			require.NoError(b, sampling.UniformVector(prng, 1<<7, pb.Coeffs))

			b.Run(fmt.Sprintf("%s/N=%d", bk.Name(), n), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := e.Mul(pa, pb); err != nil {
						b.Fatal(err)
					}
				}
			})
		}

		require.NoError(b, bk.Release())
	}
}
