//go:build !amd64 && !arm64

package isa

// hostFeatures reports no vector extensions for unsupported architectures
func hostFeatures() Features {
	return Features{}
}
