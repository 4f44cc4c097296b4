//go:build amd64 || arm64

package main

import "github.com/bytedance/sonic"

// marshalLine encodes v as a single JSON line.
func marshalLine(v any) ([]byte, error) {
	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
