package main

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// residentMemory returns the resident set size of this process in bytes.
func residentMemory() (int, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, fmt.Errorf("open procfs: %w", err)
	}
	proc, err := fs.Self()
	if err != nil {
		return 0, fmt.Errorf("read self: %w", err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, fmt.Errorf("read stat: %w", err)
	}
	return stat.ResidentMemory(), nil
}
