package scanner

import (
	"encoding/binary"
	"math/bits"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
)

// StringFinder returns the index of the first byte of b that ends a run of
// ordinary string content (a quote, a backslash or a control byte), or len(b).
type StringFinder func(b []byte) int

// FinderFor returns the string run finder for a tier.
func FinderFor(t isa.Tier) StringFinder {
	return kernelFor(t).find
}

// stopWord sets the high bit of every byte of w that ends a string run.
func stopWord(w uint64) uint64 {
	return eqBytes(w, '"') | eqBytes(w, '\\') | zeroBytes(w&upper3Bits)
}

func findStop16(b []byte) int {
	i := 0
	for ; i+16 <= len(b); i += 16 {
		m0 := stopWord(binary.LittleEndian.Uint64(b[i:]))
		m1 := stopWord(binary.LittleEndian.Uint64(b[i+8:]))
		if m0 != 0 {
			return i + bits.TrailingZeros64(m0)>>3
		}
		if m1 != 0 {
			return i + 8 + bits.TrailingZeros64(m1)>>3
		}
	}
	return i + findStopScalar(b[i:])
}

func findStop32(b []byte) int {
	i := 0
	for ; i+32 <= len(b); i += 32 {
		lane := (*[32]byte)(b[i:])
		for w := 0; w < 32; w += 8 {
			if m := stopWord(binary.LittleEndian.Uint64(lane[w:])); m != 0 {
				return i + w + bits.TrailingZeros64(m)>>3
			}
		}
	}
	return i + findStop16(b[i:])
}

func findStop64(b []byte) int {
	i := 0
	for ; i+64 <= len(b); i += 64 {
		lane := (*[64]byte)(b[i:])
		var hit uint64
		for w := 0; w < 64; w += 8 {
			hit |= stopWord(binary.LittleEndian.Uint64(lane[w:]))
		}
		if hit == 0 {
			continue
		}
		for w := 0; w < 64; w += 8 {
			if m := stopWord(binary.LittleEndian.Uint64(lane[w:])); m != 0 {
				return i + w + bits.TrailingZeros64(m)>>3
			}
		}
	}
	return i + findStop32(b[i:])
}

func findStopScalar(b []byte) int {
	for i, c := range b {
		if CharClassLookup[c]&CharClassStringStop != 0 {
			return i
		}
	}
	return len(b)
}
