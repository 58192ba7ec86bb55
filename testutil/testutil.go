package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// SearchResult represents a ranked row.
type SearchResult struct {
	Index int
	Score float32
}

// RNG is a seeded, mutex-guarded source for reproducible fixtures.
type RNG struct {
	mu   sync.Mutex
	src  *rand.Rand
	seed int64
}

func NewRNG(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed)), seed: seed} //nolint:gosec // fixtures
}

// Reset rewinds the sequence to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	r.src.Seed(r.seed)
	r.mu.Unlock()
}

func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Float32 returns a value in [0, 1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float32()
}

// FillUniform fills dst with values in [0, 1) under a single lock.
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.src.Float32()
	}
}

// rows carves num rows of dim out of one backing array and fills each with
// fill. Every row has cap == dim so appends never bleed into a neighbour.
func (r *RNG) rows(num, dim int, fill func(src *rand.Rand, row []float32)) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	backing := make([]float32, num*dim)
	out := make([][]float32, num)
	for i := range out {
		out[i] = backing[i*dim : (i+1)*dim : (i+1)*dim]
		fill(r.src, out[i])
	}
	return out
}

// UniformVectors returns num rows with components in [0, 1). Such rows are
// never orthogonal to each other, so every pair scores above zero.
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	return r.rows(num, dim, func(src *rand.Rand, row []float32) {
		for j := range row {
			row[j] = src.Float32()
		}
	})
}

// UniformRangeVectors returns num rows with components in [-1, 1). Roughly
// half of all pairs score at or below zero and are dropped by a search.
func (r *RNG) UniformRangeVectors(num, dim int) [][]float32 {
	return r.rows(num, dim, func(src *rand.Rand, row []float32) {
		for j := range row {
			row[j] = src.Float32()*2 - 1
		}
	})
}

// UnitVectors returns num rows drawn uniformly from the unit sphere.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	return r.rows(num, dim, func(src *rand.Rand, row []float32) {
		var sq float64
		for j := range row {
			g := src.NormFloat64()
			row[j] = float32(g)
			sq += g * g
		}
		if sq == 0 {
			row[0], sq = 1, 1
		}
		inv := float32(1 / math.Sqrt(sq))
		for j := range row {
			row[j] *= inv
		}
	})
}

// Keys returns n distinct keys of the form prefix-0, prefix-1, ....
func Keys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return keys
}

// Cosine computes cosine similarity in float64. It returns NaN when either
// norm is zero.
func Cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// BruteForceCosine ranks vectors by cosine similarity to query and returns
// the top k with a strictly positive score, best first. Ties are broken by
// lower index.
func BruteForceCosine(vectors [][]float32, query []float32, k int) []SearchResult {
	results := make([]SearchResult, 0, len(vectors))
	for i, v := range vectors {
		s := Cosine(query, v)
		if s > 0 {
			results = append(results, SearchResult{Index: i, Score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
