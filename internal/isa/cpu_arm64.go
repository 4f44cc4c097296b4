//go:build arm64

package isa

import (
	"golang.org/x/sys/cpu"
)

func hostFeatures() Features {
	return Features{
		ASIMD: cpu.ARM64.HasASIMD,
	}
}
