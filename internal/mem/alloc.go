package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every buffer handed out by this package.
// 64 bytes covers the widest load used by any kernel (AVX-512), and therefore
// also AVX2 (32) and NEON/SSE (16).
const Alignment = 64

// AllocAligned allocates a byte slice of the given size starting at an
// address divisible by Alignment. It returns nil for size <= 0.
//
// The slice over-allocates by up to Alignment bytes; the underlying array is
// kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedFloat32 allocates n float32 values at Alignment.
// Go zero-fills the memory, but callers that need zeroes should say so with
// Zero rather than rely on it.
func AllocAlignedFloat32(n int) []float32 {
	if n <= 0 {
		return nil
	}
	b := AllocAligned(n * 4)
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n) //nolint:gosec // unsafe is required for memory alignment
}

// Zero clears buf.
func Zero(buf []float32) {
	clear(buf)
}

// IsAligned reports whether buf starts at an Alignment boundary.
// Empty slices are considered aligned.
func IsAligned(buf []float32) bool {
	if len(buf) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&buf[0]))%Alignment == 0 //nolint:gosec // address inspection only
}

// Float32Bytes returns the raw little-endian view of v without copying.
// The view aliases v and is only valid while v is alive.
func Float32Bytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4) //nolint:gosec // zero-copy view
}
