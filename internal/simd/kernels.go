package simd

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Lanes is the stride of the generic kernels.
const Lanes = 8

var (
	dotImpl        = dotGeneric
	sumSquaresImpl = sumSquaresGeneric
)

// Dot returns the dot product of a and b.
//
// SAFETY: assumes len(a) == len(b). No bounds checks are performed beyond
// what Go itself enforces; callers validate dimensions once at the boundary.
func Dot(a, b []float32) float32 {
	return dotImpl(a, b)
}

// SumSquares returns the sum of squared elements of v.
func SumSquares(v []float32) float32 {
	return sumSquaresImpl(v)
}

// L2Norm returns sqrt(sum(v[i]^2)).
func L2Norm(v []float32) float32 {
	return Sqrt(sumSquaresImpl(v))
}

// Sqrt returns the float32 square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Info describes the active kernels.
type Info struct {
	ISA         ISA
	Accelerated bool
	Features    []string
}

// RuntimeInfo reports the kernel selection made at init.
func RuntimeInfo() Info {
	if activeISA == Generic {
		return Info{ISA: Generic}
	}
	vi := vek32.Info()
	return Info{
		ISA:         activeISA,
		Accelerated: vi.Acceleration,
		Features:    vi.CPUFeatures,
	}
}

func dotAccel(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

func sumSquaresAccel(v []float32) float32 {
	if len(v) == 0 {
		return 0
	}
	return vek32.Dot(v, v)
}

func dotGeneric(a, b []float32) float32 {
	b = b[:len(a)]

	var s0, s1, s2, s3, s4, s5, s6, s7 float32
	i := 0
	for ; i+Lanes <= len(a); i += Lanes {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
		s4 += a[i+4] * b[i+4]
		s5 += a[i+5] * b[i+5]
		s6 += a[i+6] * b[i+6]
		s7 += a[i+7] * b[i+7]
	}

	sum := (s0 + s1) + (s2 + s3) + (s4 + s5) + (s6 + s7)
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func sumSquaresGeneric(v []float32) float32 {
	return dotGeneric(v, v)
}
