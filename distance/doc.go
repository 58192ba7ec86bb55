// Package distance exposes the similarity arithmetic vecscan scores with.
//
// Everything dispatches to the kernels selected at start-up: vek32
// assembly on AVX2+FMA, an eight-lane Go loop elsewhere.
//
//	sim := distance.Cosine(a, b, distance.L2Norm(a), distance.L2Norm(b))
package distance
