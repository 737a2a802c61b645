package csr

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Builder assembles a Matrix row by row.
//
// Rows are emitted in the order EndRow is called. Builder is not safe for
// concurrent use.
type Builder struct {
	cols    int
	indices []int32
	indptr  []int32
	err     error
}

// NewBuilder creates a Builder for a matrix with cols columns.
// rowsHint pre-sizes the row offset array.
func NewBuilder(cols, rowsHint int) *Builder {
	if rowsHint < 0 {
		rowsHint = 0
	}
	indptr := make([]int32, 1, rowsHint+1)
	return &Builder{
		cols:   cols,
		indptr: indptr,
	}
}

// Append adds a column id to the current row.
func (b *Builder) Append(col uint32) {
	if b.err != nil {
		return
	}
	if int64(col) >= int64(b.cols) {
		b.err = fmt.Errorf("%w: column %d out of range [0, %d) in row %d", ErrInvalidMatrix, col, b.cols, b.Rows())
		return
	}
	if len(b.indices) == math.MaxInt32 {
		b.err = ErrTooLarge
		return
	}
	b.indices = append(b.indices, int32(col))
}

// AppendBitmap appends every member of bm to the current row, in ascending
// order, and ends the row.
func (b *Builder) AppendBitmap(bm *roaring.Bitmap) {
	if bm != nil {
		bm.Iterate(func(x uint32) bool {
			b.Append(x)
			return b.err == nil
		})
	}
	b.EndRow()
}

// EndRow closes the current row.
func (b *Builder) EndRow() {
	b.indptr = append(b.indptr, int32(len(b.indices)))
}

// Rows returns the number of completed rows.
func (b *Builder) Rows() int {
	return len(b.indptr) - 1
}

// Build returns the assembled matrix. The Builder must not be used afterwards.
func (b *Builder) Build() (*Matrix, error) {
	if b.err != nil {
		return nil, b.err
	}
	indices := b.indices
	if indices == nil {
		indices = []int32{}
	}
	return &Matrix{
		Rows:    b.Rows(),
		Cols:    b.cols,
		Indices: indices,
		Indptr:  b.indptr,
	}, nil
}
