package testutil

import (
	"math"
	"math/rand"
	"sync"
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

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// SparseMatrix returns a matrix with numRows rows whose ids are a shuffled
// subset of [0, 4*numRows). Each row has up to maxPerRow distinct columns
// drawn from [0, numCols) with values in (0, 1].
func (r *RNG) SparseMatrix(numRows, numCols, maxPerRow int) *Matrix {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := NewMatrix()
	ids := r.rand.Perm(4 * numRows)[:numRows]
	for _, id := range ids {
		n := r.rand.Intn(maxPerRow + 1)
		seen := make(map[int32]bool, n)
		var cols []int32
		var vals []float32
		for len(cols) < n && len(seen) < numCols {
			c := int32(r.rand.Intn(numCols))
			if seen[c] {
				continue
			}
			seen[c] = true
			cols = append(cols, c)
			vals = append(vals, 1-r.rand.Float32())
		}
		m.Add(int32(id), cols, vals)
	}
	return m
}

// DenseMatrix returns a matrix of numRows rows over the schema [0, numCols)
// with values uniform in [-1, 1).
func (r *RNG) DenseMatrix(numRows, numCols int) (*Matrix, []int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	schema := make([]int32, numCols)
	for i := range schema {
		schema[i] = int32(i * 2)
	}
	m := NewMatrix()
	for id := range numRows {
		vals := make([]float32, numCols)
		for i := range vals {
			vals[i] = r.rand.Float32()*2 - 1
		}
		m.Add(int32(id), schema, vals)
	}
	return m, schema
}

// Cosine returns the cosine similarity of two sparse vectors given as
// column → value maps.
func Cosine(a, b map[int32]float32) float64 {
	var dot, na, nb float64
	for c, v := range a {
		na += float64(v) * float64(v)
		if w, ok := b[c]; ok {
			dot += float64(v) * float64(w)
		}
	}
	for _, w := range b {
		nb += float64(w) * float64(w)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
