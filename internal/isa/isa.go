// Package isa detects the instruction-set tiers the running processor
// supports and orders them from widest lanes to the scalar fallback.
package isa

import (
	"fmt"
	"strings"
	"sync"
)

// Tier identifies one backend family. Lower values are preferred.
type Tier uint8

const (
	TierAVX512 Tier = iota
	TierAVX2
	TierNEON
	TierSSE42
	TierScalar
)

var tierNames = [...]string{
	TierAVX512: "avx512",
	TierAVX2:   "avx2",
	TierNEON:   "neon",
	TierSSE42:  "sse42",
	TierScalar: "scalar",
}

// Lane widths in bytes, one per tier.
var laneWidths = [...]int{
	TierAVX512: 64,
	TierAVX2:   32,
	TierNEON:   16,
	TierSSE42:  16,
	TierScalar: 8,
}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// LaneWidth returns the number of input bytes classified per step.
func (t Tier) LaneWidth() int {
	if int(t) < len(laneWidths) {
		return laneWidths[t]
	}
	return laneWidths[TierScalar]
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return int(t) < len(tierNames)
}

// Tiers returns every tier, best first.
func Tiers() []Tier {
	return []Tier{TierAVX512, TierAVX2, TierNEON, TierSSE42, TierScalar}
}

// ParseTier maps a tier name (case-insensitive) back to its Tier.
func ParseTier(name string) (Tier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown instruction set %q", name)
}

// Features is the subset of CPU feature flags the tiers depend on.
type Features struct {
	AVX512F   bool
	AVX512BW  bool
	AVX2      bool
	BMI1      bool
	BMI2      bool
	PCLMULQDQ bool
	SSE42     bool
	ASIMD     bool
}

// Detector answers which tiers can run. The host detector reads the flags
// once; tests build detectors from synthetic feature sets.
type Detector struct {
	features Features

	once sync.Once
	best Tier
}

// NewDetector returns a detector for the executing processor.
func NewDetector() *Detector {
	return &Detector{features: hostFeatures()}
}

// NewDetectorWithFeatures returns a detector that pretends to run on a
// processor with the given flags.
func NewDetectorWithFeatures(f Features) *Detector {
	return &Detector{features: f}
}

// Features returns the flags the detector was built from.
func (d *Detector) Features() Features {
	return d.features
}

// Supported reports whether tier t can run on this processor.
func (d *Detector) Supported(t Tier) bool {
	f := d.features
	switch t {
	case TierAVX512:
		return f.AVX512F && f.AVX512BW && f.AVX2 && f.BMI2
	case TierAVX2:
		return f.AVX2 && f.BMI1 && f.BMI2 && f.PCLMULQDQ
	case TierNEON:
		return f.ASIMD
	case TierSSE42:
		return f.SSE42 && f.PCLMULQDQ
	case TierScalar:
		return true
	}
	return false
}

// Detect returns the best supported tier. The answer is computed once per
// detector; repeated calls return the cached value.
func (d *Detector) Detect() Tier {
	d.once.Do(func() {
		d.best = TierScalar
		for _, t := range Tiers() {
			if d.Supported(t) {
				d.best = t
				return
			}
		}
	})
	return d.best
}
