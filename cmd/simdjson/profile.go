package main

import (
	"fmt"
	"os"

	"github.com/felixge/fgprof"
)

// startProfile writes a wall clock profile to path until the returned
// function is called. An empty path disables profiling.
func startProfile(path string) (func() error, error) {
	if path == "" {
		return func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return func() error { return nil }, fmt.Errorf("create profile: %w", err)
	}
	stop := fgprof.Start(f, fgprof.FormatPprof)
	return func() error {
		if err := stopProfile(stop); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

// stopProfile calls stop, turning a panic into an error. fgprof divides by
// its sample rate, which is zero when no sample was taken yet.
func stopProfile(stop func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stop profile: %v", r)
		}
	}()
	if err := stop(); err != nil {
		return fmt.Errorf("stop profile: %w", err)
	}
	return nil
}
