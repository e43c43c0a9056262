// Package matrix implements dense row-major matrices and the Toeplitz and
// circulant matrices that turn a polynomial product into a matrix product.
package matrix

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrInvalidDimension is returned when a matrix of a malformed shape is requested.
var ErrInvalidDimension = errors.New("invalid dimension")

// Number is the set of element types a [Matrix] can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Matrix is a dense Rows x Cols matrix stored in row-major order:
// element (i, j) is Data[i*Cols+j].
type Matrix[T Number] struct {
	Rows, Cols int
	Data       []T
}

// NewMatrix allocates a zero Rows x Cols matrix.
func NewMatrix[T Number](rows, cols int) (*Matrix[T], error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("matrix.NewMatrix: %dx%d: %w", rows, cols, ErrInvalidDimension)
	}
	return &Matrix[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}, nil
}

// NewMatrixFromRows builds a matrix from a slice of rows of equal length.
func NewMatrixFromRows[T Number](rows [][]T) (m *Matrix[T], err error) {

	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix.NewMatrixFromRows: no row: %w", ErrInvalidDimension)
	}

	if m, err = NewMatrix[T](len(rows), len(rows[0])); err != nil {
		return nil, err
	}

	for i, row := range rows {
		if len(row) != m.Cols {
			return nil, fmt.Errorf("matrix.NewMatrixFromRows: row %d has %d columns, expected %d: %w", i, len(row), m.Cols, ErrInvalidDimension)
		}
		copy(m.Row(i), row)
	}

	return
}

// NewColumn returns the len(v) x 1 matrix whose single column is v.
func NewColumn[T Number](v []T) (*Matrix[T], error) {
	m, err := NewMatrix[T](len(v), 1)
	if err != nil {
		return nil, err
	}
	copy(m.Data, v)
	return m, nil
}

// At returns element (i, j).
func (m *Matrix[T]) At(i, j int) T {
	return m.Data[i*m.Cols+j]
}

// Set sets element (i, j) to v.
func (m *Matrix[T]) Set(i, j int, v T) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i as a re-slice of Data.
func (m *Matrix[T]) Row(i int) []T {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Col returns a copy of column j.
func (m *Matrix[T]) Col(j int) (col []T) {
	col = make([]T, m.Rows)
	for i := range col {
		col[i] = m.Data[i*m.Cols+j]
	}
	return
}

// Rows2D returns a copy of the matrix as a slice of rows.
func (m *Matrix[T]) Rows2D() (rows [][]T) {
	rows = make([][]T, m.Rows)
	for i := range rows {
		rows[i] = make([]T, m.Cols)
		copy(rows[i], m.Row(i))
	}
	return
}

// CopyNew returns a deep copy of the matrix.
func (m *Matrix[T]) CopyNew() *Matrix[T] {
	data := make([]T, len(m.Data))
	copy(data, m.Data)
	return &Matrix[T]{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// Transpose returns a new Cols x Rows matrix.
func (m *Matrix[T]) Transpose() *Matrix[T] {
	t := &Matrix[T]{Rows: m.Cols, Cols: m.Rows, Data: make([]T, len(m.Data))}
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			t.Data[j*t.Cols+i] = m.Data[i*m.Cols+j]
		}
	}
	return t
}

// Max returns the largest element.
func (m *Matrix[T]) Max() (max T) {
	for i, v := range m.Data {
		if i == 0 || v > max {
			max = v
		}
	}
	return
}

// Equal returns true if both matrices have the same shape and elements.
func (m *Matrix[T]) Equal(other *Matrix[T]) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols || len(m.Data) != len(other.Data) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// Validate checks that the shape matches the length of Data.
func (m *Matrix[T]) Validate() error {
	if m == nil {
		return fmt.Errorf("nil matrix: %w", ErrInvalidDimension)
	}
	if m.Rows < 1 || m.Cols < 1 || len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%dx%d matrix with %d elements: %w", m.Rows, m.Cols, len(m.Data), ErrInvalidDimension)
	}
	return nil
}

// Convert returns a copy of m with elements converted to type S.
func Convert[S, T Number](m *Matrix[T]) *Matrix[S] {
	c := &Matrix[S]{Rows: m.Rows, Cols: m.Cols, Data: make([]S, len(m.Data))}
	for i, v := range m.Data {
		c.Data[i] = S(v)
	}
	return c
}

// Mul returns the exact product m * other computed in T. It is the
// reference against which backends are checked.
func (m *Matrix[T]) Mul(other *Matrix[T]) (*Matrix[T], error) {

	if m.Cols != other.Rows {
		return nil, fmt.Errorf("matrix.Mul: %dx%d times %dx%d: %w", m.Rows, m.Cols, other.Rows, other.Cols, ErrInvalidDimension)
	}

	res := &Matrix[T]{Rows: m.Rows, Cols: other.Cols, Data: make([]T, m.Rows*other.Cols)}

	for i := 0; i < m.Rows; i++ {
		ri := res.Row(i)
		for k, mik := range m.Row(i) {
			if mik == 0 {
				continue
			}
			for j, okj := range other.Row(k) {
				ri[j] += mik * okj
			}
		}
	}

	return res, nil
}

// MulVec returns the exact product m * v.
func (m *Matrix[T]) MulVec(v []T) ([]T, error) {

	if m.Cols != len(v) {
		return nil, fmt.Errorf("matrix.MulVec: %dx%d times %d: %w", m.Rows, m.Cols, len(v), ErrInvalidDimension)
	}

	res := make([]T, m.Rows)
	for i := range res {
		var acc T
		for j, mij := range m.Row(i) {
			acc += mij * v[j]
		}
		res[i] = acc
	}

	return res, nil
}
