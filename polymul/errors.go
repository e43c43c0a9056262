package polymul

import (
	"errors"
	"fmt"

	"github.com/rnstpu/rnstpu/matrix"
)

var (
	// ErrInvalidDimension is returned for malformed shape requests.
	ErrInvalidDimension = matrix.ErrInvalidDimension

	// ErrBackend matches every [*BackendError].
	ErrBackend = errors.New("backend error")

	// ErrPrecisionOverflow matches every [*PrecisionOverflowError].
	ErrPrecisionOverflow = errors.New("precision overflow")
)

// BackendError is returned when the matrix-multiplication backend fails or
// returns a grid that is not a valid integer product of the expected shape.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend %s: %v", e.Op, e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrBackend].
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// PrecisionOverflowError is returned when an input or output value reaches
// the exact bound of the backend, beyond which integers are no longer
// guaranteed to be represented exactly.
type PrecisionOverflowError struct {
	Op string
	// Operand is "lhs", "rhs" or "output".
	Operand string
	// Index is the position of the offending value in the operand.
	Index int
	Value float64
	Bound uint64
}

func (e *PrecisionOverflowError) Error() string {
	return fmt.Sprintf("%s: %s[%d] = %.0f exceeds the exact bound %d", e.Op, e.Operand, e.Index, e.Value, e.Bound)
}

// Is reports whether target is [ErrPrecisionOverflow].
func (e *PrecisionOverflowError) Is(target error) bool {
	return target == ErrPrecisionOverflow
}
