//go:build amd64

package simd

import "golang.org/x/sys/cpu"

// vek32's amd64 assembly needs both extensions; OS support for the YMM
// state is folded into cpu.X86.HasAVX2.
func detectCPU() {
	hasAVX2 = cpu.X86.HasAVX2 && cpu.X86.HasFMA
}
