package distance

import "github.com/hupe1980/vecscan/internal/simd"

// Dot returns the dot product. len(b) must be at least len(a).
func Dot(a, b []float32) float32 {
	return simd.Dot(a, b)
}

// L2Norm returns the Euclidean length of v. Tables store it alongside each
// row so a scan costs one dot product per row.
func L2Norm(v []float32) float32 {
	return simd.L2Norm(v)
}

// Cosine returns Dot(a, b) / (normA * normB) with caller-supplied norms.
//
// A zero norm is not guarded: the result is NaN for a zero vector (the
// sentinel row included) and the top-k selector never admits it.
func Cosine(a, b []float32, normA, normB float32) float32 {
	return simd.Dot(a, b) / (normA * normB)
}

// CosineSimilarity computes both norms first.
func CosineSimilarity(a, b []float32) float32 {
	return Cosine(a, b, simd.L2Norm(a), simd.L2Norm(b))
}

// Normalize scales v to unit length in place and returns its previous norm.
// A zero vector is left unchanged and 0 is returned.
func Normalize(v []float32) float32 {
	n := simd.L2Norm(v)
	if n == 0 {
		return 0
	}
	inv := 1 / n
	for i := range v {
		v[i] *= inv
	}
	return n
}
