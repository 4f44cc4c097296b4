package simdjson

import (
	"sync"
	"sync/atomic"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
)

var (
	detectOnce sync.Once
	detector   *isa.Detector
	active     atomic.Pointer[backend]
)

func hostDetector() *isa.Detector {
	detectOnce.Do(func() {
		detector = isa.NewDetector()
		b := backends[detector.Detect()]
		active.Store(b)
		Logger().Debug("selected implementation",
			"implementation", b.name, "description", b.description)
	})
	return detector
}

// Active returns the backend new parsers use: the widest one the processor
// supports unless Force picked another.
func Active() Implementation {
	hostDetector()
	return active.Load()
}

// Available returns every backend, best first, whether or not the processor
// supports it.
func Available() []Implementation {
	out := make([]Implementation, 0, len(backends))
	for _, t := range isa.Tiers() {
		out = append(out, backends[t])
	}
	return out
}

// Force makes tier t the active backend for parsers created afterwards.
func Force(t Tier) error {
	b, err := lookup(t)
	if err != nil {
		return err
	}
	active.Store(b)
	Logger().Debug("forced implementation", "implementation", b.name)
	return nil
}

func lookup(t Tier) (*backend, error) {
	if !t.Valid() {
		return nil, jsonerr.Newf("dispatch", -1, ErrUnsupportedTier, "unknown tier %d", uint8(t))
	}
	b := backends[t]
	if !b.Supported() {
		return nil, jsonerr.Newf("dispatch", -1, ErrUnsupportedTier, "%s is not supported by this processor", b.name)
	}
	return b, nil
}
