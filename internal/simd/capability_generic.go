//go:build !amd64

package simd

// vek32 has no assembly off amd64; its fallback is slower than dotGeneric.
func detectCPU() {}
