package testutil

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/featmap/csr"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Rows generates rows of distinct, ascending column ids in [0, cols).
// Each row has between 0 and maxPerRow entries.
func (r *RNG) Rows(rows, cols, maxPerRow int) [][]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows(rows, cols, maxPerRow, func() int32 { return int32(r.rand.Intn(cols)) })
}

// Matrix is like Rows but returns a CSR matrix.
func (r *RNG) Matrix(rows, cols, maxPerRow int) *csr.Matrix {
	return csr.MustFromRows(cols, r.Rows(rows, cols, maxPerRow))
}

// SkewedMatrix generates a matrix whose column ids follow a Zipf
// distribution with exponent s > 1, so low ids are much more frequent.
// This mimics the long-tailed frequency of clinical codes.
func (r *RNG) SkewedMatrix(rows, cols, maxPerRow int, s float64) *csr.Matrix {
	r.mu.Lock()
	defer r.mu.Unlock()

	zipf := rand.NewZipf(r.rand, s, 1, uint64(cols-1))
	data := r.rows(rows, cols, maxPerRow, func() int32 { return int32(zipf.Uint64()) })
	return csr.MustFromRows(cols, data)
}

// Indicator generates n feature definitions over cols diagnosis codes. Each
// feature has between 1 and maxPerFeature distinct codes.
func (r *RNG) Indicator(cols, n, maxPerFeature int) *csr.Matrix {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([][]int32, n)
	for f := range data {
		size := 1 + r.rand.Intn(maxPerFeature)
		data[f] = r.distinct(size, cols, func() int32 { return int32(r.rand.Intn(cols)) })
	}
	return csr.MustFromRows(cols, data)
}

func (r *RNG) rows(rows, cols, maxPerRow int, draw func() int32) [][]int32 {
	data := make([][]int32, rows)
	for i := range data {
		data[i] = r.distinct(r.rand.Intn(maxPerRow+1), cols, draw)
	}
	return data
}

// distinct draws up to size distinct values, sorted ascending.
func (r *RNG) distinct(size, cols int, draw func() int32) []int32 {
	size = min(size, cols)
	row := make([]int32, 0, size)
	for attempts := 0; len(row) < size && attempts < 4*size; attempts++ {
		v := draw()
		if !slices.Contains(row, v) {
			row = append(row, v)
		}
	}
	slices.Sort(row)
	return row
}
