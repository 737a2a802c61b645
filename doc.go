// Package featmap remaps sparse observation-by-diagnosis matrices onto
// coarser clinical features.
//
// Each output feature is a fixed set of diagnosis codes, given as a row of an
// indicator matrix I. For every observation (row of X), the diagnoses are
// greedily covered by features: features are scanned in ascending id, a
// feature is taken when all of its diagnoses are still uncovered, and its
// diagnoses are then consumed. Diagnoses that no feature can take are
// dropped. The result Y has one row per observation and one column per
// feature.
//
// # Quick Start
//
//	x := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}})
//	i := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}, {2}})
//	res, _ := featmap.Remap(ctx, x, i)
//	fmt.Println(res.Matrix.Row(0)) // [0]
//
// # Minimum Support
//
// RemapWithMinSupport additionally requires that every feature used in Y is
// used by at least smin observations. Features with 0 < support < smin are
// removed one at a time, lowest id first, and the observations that used them
// are re-resolved without them, until no such feature remains:
//
//	res, _ := featmap.RemapWithMinSupport(ctx, x, i, 5)
//	fmt.Println(res.Report.Removed)
//
// # Storage and CLI
//
// Package csr defines the matrix type and a compressed binary format,
// package dataset moves matrices in and out of a blobstore.BlobStore (local
// directory, memory, S3, MinIO), and cmd/featmap wraps everything in a CLI.
package featmap
