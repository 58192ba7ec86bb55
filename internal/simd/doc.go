// Package simd provides the dot-product and L2-norm kernels behind every
// similarity computation.
//
// Two tiers exist. The generic tier is pure Go with eight independent
// accumulators and a scalar tail. The avx2 tier calls
// github.com/viterin/vek/vek32 and is selected on amd64 when
// golang.org/x/sys/cpu reports AVX2 and FMA.
//
// VECSCAN_SIMD=generic forces the pure Go tier, for example to compare
// scores across machines.
package simd
