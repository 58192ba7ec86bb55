// Package testutil provides testing utilities for vecscan.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors and keys and for
// computing exact cosine rankings to compare against.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniform(vec)      // uniform [0, 1)
//	vecs := rng.UnitVectors(1000, 128)
//
// # Ground Truth
//
//	results := testutil.BruteForceCosine(vectors, query, k)
package testutil
