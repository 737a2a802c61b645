package csr

import "errors"

var (
	// ErrInvalidMatrix is returned when a matrix violates the CSR convention
	// (bad indptr length or ordering, out-of-range column ids, ...).
	ErrInvalidMatrix = errors.New("csr: invalid matrix")

	// ErrCorrupt is returned when an encoded matrix fails validation
	// (bad magic, checksum mismatch, truncated blocks).
	ErrCorrupt = errors.New("csr: corrupt encoding")

	// ErrIncompatibleFormat is returned when the encoded format version is not supported.
	ErrIncompatibleFormat = errors.New("csr: incompatible format")

	// ErrTooLarge is returned when a matrix cannot be indexed with int32 offsets.
	ErrTooLarge = errors.New("csr: matrix exceeds int32 index range")
)
