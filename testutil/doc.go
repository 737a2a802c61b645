// Package testutil provides testing utilities for featmap.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for random sparse
// binary matrices in CSR form.
//
// # Random Matrices
//
//	rng := testutil.NewRNG(seed)
//	x := rng.Matrix(10_000, 500, 12)         // uniform diagnosis codes
//	x = rng.SkewedMatrix(10_000, 500, 12, 1.2) // Zipf-distributed codes
//	i := rng.Indicator(500, 200, 3)           // feature definitions
package testutil
