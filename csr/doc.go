// Package csr implements the compressed sparse row (CSR) matrix shape that
// featmap exchanges with its callers.
//
// A Matrix stores a binary rows x cols matrix as two flat arrays:
//
//	Indptr:  len(Indptr) == Rows+1, Indptr[0] == 0, non-decreasing,
//	         Indptr[Rows] == len(Indices)
//	Indices: column ids; row r occupies Indices[Indptr[r]:Indptr[r+1]]
//
// This is the same convention as scipy.sparse.csr_matrix with int32 index
// arrays and implicit 1.0 values. Column ids inside a row need not be sorted
// and may repeat; consumers treat each row as a set.
//
// # Building
//
// Builder produces matrices row by row in ascending row order:
//
//	b := csr.NewBuilder(cols, rowsHint)
//	b.Append(3)
//	b.Append(7)
//	b.EndRow()
//	m, err := b.Build()
//
// # Binary Format
//
// Encode and Decode persist a Matrix in a small self-describing container
// with optional LZ4 or ZSTD block compression and a trailing CRC32C.
package csr
