package csr

import (
	"fmt"
	"math"
	"slices"
)

// Matrix is a binary sparse matrix in compressed sparse row form.
//
// The zero value is an empty 0x0 matrix with a nil Indptr; use New or
// Builder to obtain a valid matrix.
type Matrix struct {
	Rows    int
	Cols    int
	Indices []int32
	Indptr  []int32
}

// New wraps the given arrays in a Matrix and validates them.
// The arrays are not copied.
func New(rows, cols int, indices, indptr []int32) (*Matrix, error) {
	m := &Matrix{
		Rows:    rows,
		Cols:    cols,
		Indices: indices,
		Indptr:  indptr,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// FromRows builds a matrix with the given column count from explicit rows.
func FromRows(cols int, rows [][]int32) (*Matrix, error) {
	b := NewBuilder(cols, len(rows))
	for _, row := range rows {
		for _, c := range row {
			if c < 0 {
				return nil, fmt.Errorf("%w: negative column id %d", ErrInvalidMatrix, c)
			}
			b.Append(uint32(c))
		}
		b.EndRow()
	}
	return b.Build()
}

// MustFromRows is like FromRows but panics on error.
// It is intended for tests and examples.
func MustFromRows(cols int, rows [][]int32) *Matrix {
	m, err := FromRows(cols, rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate checks the CSR invariants.
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalidMatrix)
	}
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("%w: negative shape (%d, %d)", ErrInvalidMatrix, m.Rows, m.Cols)
	}
	if m.Cols > math.MaxInt32 || m.Rows > math.MaxInt32 || len(m.Indices) > math.MaxInt32 {
		return ErrTooLarge
	}
	if len(m.Indptr) != m.Rows+1 {
		return fmt.Errorf("%w: len(indptr)=%d, want rows+1=%d", ErrInvalidMatrix, len(m.Indptr), m.Rows+1)
	}
	if m.Indptr[0] != 0 {
		return fmt.Errorf("%w: indptr[0]=%d, want 0", ErrInvalidMatrix, m.Indptr[0])
	}
	for r := 0; r < m.Rows; r++ {
		if m.Indptr[r+1] < m.Indptr[r] {
			return fmt.Errorf("%w: indptr decreases at row %d (%d > %d)", ErrInvalidMatrix, r, m.Indptr[r], m.Indptr[r+1])
		}
	}
	if int(m.Indptr[m.Rows]) != len(m.Indices) {
		return fmt.Errorf("%w: indptr[rows]=%d, want nnz=%d", ErrInvalidMatrix, m.Indptr[m.Rows], len(m.Indices))
	}
	for i, c := range m.Indices {
		if c < 0 || int(c) >= m.Cols {
			return fmt.Errorf("%w: indices[%d]=%d out of range [0, %d)", ErrInvalidMatrix, i, c, m.Cols)
		}
	}
	return nil
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Indices)
}

// Row returns the column ids of row r. The returned slice aliases Indices.
func (m *Matrix) Row(r int) []int32 {
	return m.Indices[m.Indptr[r]:m.Indptr[r+1]]
}

// RowLen returns the number of entries stored for row r.
func (m *Matrix) RowLen(r int) int {
	return int(m.Indptr[r+1] - m.Indptr[r])
}

// Density returns nnz / (rows*cols), or 0 for an empty shape.
func (m *Matrix) Density() float64 {
	cells := float64(m.Rows) * float64(m.Cols)
	if cells == 0 {
		return 0
	}
	return float64(m.NNZ()) / cells
}

// Equal reports whether both matrices have the same shape and arrays.
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Rows == other.Rows &&
		m.Cols == other.Cols &&
		slices.Equal(m.Indptr, other.Indptr) &&
		slices.Equal(m.Indices, other.Indices)
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Indices: slices.Clone(m.Indices),
		Indptr:  slices.Clone(m.Indptr),
	}
}

// String returns a short description of the matrix shape.
func (m *Matrix) String() string {
	return fmt.Sprintf("csr(%dx%d, nnz=%d)", m.Rows, m.Cols, m.NNZ())
}
