package simd

import (
	"os"
	"strings"
)

// ISA names a kernel tier.
type ISA uint8

const (
	// Generic is the unrolled pure Go kernel.
	Generic ISA = iota
	// AVX2 is vek32's AVX2+FMA assembly.
	AVX2
)

func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case AVX2:
		return "avx2"
	default:
		return "unknown"
	}
}

// ParseISA accepts "generic" or "avx2", case-insensitive.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "avx2":
		return AVX2, true
	}
	return Generic, false
}

// EnvOverride pins the tier. Unknown or unavailable values are ignored.
const EnvOverride = "VECSCAN_SIMD"

var (
	activeISA   ISA
	hasOverride bool
	// set by platform detection before selectISA runs
	hasAVX2 bool
)

func selectISA(env string) {
	hasOverride = false
	if isa, ok := ParseISA(env); ok && env != "" && available(isa) {
		hasOverride = true
		setISA(isa)
		return
	}
	if hasAVX2 {
		setISA(AVX2)
		return
	}
	setISA(Generic)
}

func available(isa ISA) bool {
	return isa == Generic || (isa == AVX2 && hasAVX2)
}

func setISA(isa ISA) {
	activeISA = isa
	if isa == AVX2 {
		dotImpl = dotAccel
		sumSquaresImpl = sumSquaresAccel
		return
	}
	dotImpl = dotGeneric
	sumSquaresImpl = sumSquaresGeneric
}

func init() {
	detectCPU()
	selectISA(os.Getenv(EnvOverride))
}

// ActiveISA returns the tier in use.
func ActiveISA() ISA { return activeISA }

// IsOverridden reports whether EnvOverride picked the tier.
func IsOverridden() bool { return hasOverride }

// HasAVX2 reports AVX2 together with FMA.
func HasAVX2() bool { return hasAVX2 }
