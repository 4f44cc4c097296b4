//go:build amd64

package isa

import (
	"golang.org/x/sys/cpu"
)

func hostFeatures() Features {
	return Features{
		AVX512F:   cpu.X86.HasAVX512F,
		AVX512BW:  cpu.X86.HasAVX512BW,
		AVX2:      cpu.X86.HasAVX2,
		BMI1:      cpu.X86.HasBMI1,
		BMI2:      cpu.X86.HasBMI2,
		PCLMULQDQ: cpu.X86.HasPCLMULQDQ,
		SSE42:     cpu.X86.HasSSE42,
	}
}
