package scanner

import (
	"github.com/biggeezerdevelopment/tapejson/internal/isa"
)

// kernel is one instruction-set tier of stage 1. The lane loops are written
// out per tier so each one stays monomorphic; only the choice of kernel is
// dynamic.
type kernel struct {
	width  int
	index  func(s *Scanner, buf []byte) error
	minify func(s *Scanner, dst, src []byte) (int, error)
	find   StringFinder
}

var kernels = [...]kernel{
	isa.TierAVX512: {64, indexAVX512, minifyAVX512, findStop64},
	isa.TierAVX2:   {32, indexAVX2, minifyAVX2, findStop32},
	isa.TierNEON:   {16, indexNEON, minifyNEON, findStop16},
	isa.TierSSE42:  {16, indexSSE42, minifySSE42, findStop16},
	isa.TierScalar: {8, indexScalar, minifyScalar, findStopScalar},
}

func kernelFor(t isa.Tier) *kernel {
	if !t.Valid() {
		t = isa.TierScalar
	}
	return &kernels[t]
}

func indexAVX512(s *Scanner, buf []byte) error {
	const width = 64
	n := len(buf) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(buf[i:])
		if err := s.validate(lane[:], i); err != nil {
			return err
		}
		q, b, w, o := classify64(lane)
		s.structuralIndices = flatten(s.structuralIndices, s.base+i, s.carry.structurals(q, b, w, o, width))
	}
	if rest := buf[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return err
		}
		q, b, w, o := classify64((*[width]byte)(s.pad(rest)))
		s.structuralIndices = flatten(s.structuralIndices, s.base+n, s.carry.structurals(q, b, w, o, width))
	}
	return nil
}

func indexAVX2(s *Scanner, buf []byte) error {
	const width = 32
	n := len(buf) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(buf[i:])
		if err := s.validate(lane[:], i); err != nil {
			return err
		}
		q, b, w, o := classify32(lane)
		s.structuralIndices = flatten(s.structuralIndices, s.base+i, s.carry.structurals(q, b, w, o, width))
	}
	if rest := buf[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return err
		}
		q, b, w, o := classify32((*[width]byte)(s.pad(rest)))
		s.structuralIndices = flatten(s.structuralIndices, s.base+n, s.carry.structurals(q, b, w, o, width))
	}
	return nil
}

func indexSSE42(s *Scanner, buf []byte) error {
	const width = 16
	n := len(buf) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(buf[i:])
		if err := s.validate(lane[:], i); err != nil {
			return err
		}
		q, b, w, o := classify16(lane)
		s.structuralIndices = flatten(s.structuralIndices, s.base+i, s.carry.structurals(q, b, w, o, width))
	}
	if rest := buf[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return err
		}
		q, b, w, o := classify16((*[width]byte)(s.pad(rest)))
		s.structuralIndices = flatten(s.structuralIndices, s.base+n, s.carry.structurals(q, b, w, o, width))
	}
	return nil
}

func indexNEON(s *Scanner, buf []byte) error {
	const width = 16
	n := len(buf) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(buf[i:])
		if err := s.validate(lane[:], i); err != nil {
			return err
		}
		q, b, w, o := classifyNibbles16(lane)
		s.structuralIndices = flatten(s.structuralIndices, s.base+i, s.carry.structurals(q, b, w, o, width))
	}
	if rest := buf[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return err
		}
		q, b, w, o := classifyNibbles16((*[width]byte)(s.pad(rest)))
		s.structuralIndices = flatten(s.structuralIndices, s.base+n, s.carry.structurals(q, b, w, o, width))
	}
	return nil
}

func indexScalar(s *Scanner, buf []byte) error {
	const width = 8
	n := len(buf) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(buf[i:])
		if err := s.validate(lane[:], i); err != nil {
			return err
		}
		q, b, w, o := classifyTable8(lane)
		s.structuralIndices = flatten(s.structuralIndices, s.base+i, s.carry.structurals(q, b, w, o, width))
	}
	if rest := buf[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return err
		}
		q, b, w, o := classifyTable8((*[width]byte)(s.pad(rest)))
		s.structuralIndices = flatten(s.structuralIndices, s.base+n, s.carry.structurals(q, b, w, o, width))
	}
	return nil
}

func minifyAVX512(s *Scanner, dst, src []byte) (int, error) {
	const width = 64
	out := 0
	n := len(src) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(src[i:])
		if err := s.validate(lane[:], i); err != nil {
			return out, err
		}
		q, b, w, _ := classify64(lane)
		out += compact(dst[out:], lane[:], s.carry.keepMask(q, b, w, width), width)
	}
	if rest := src[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return out, err
		}
		lane := s.pad(rest)
		q, b, w, _ := classify64((*[width]byte)(lane))
		out += compact(dst[out:], lane, s.carry.keepMask(q, b, w, width)&laneMask(uint(len(rest))), len(rest))
	}
	return out, nil
}

func minifyAVX2(s *Scanner, dst, src []byte) (int, error) {
	const width = 32
	out := 0
	n := len(src) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(src[i:])
		if err := s.validate(lane[:], i); err != nil {
			return out, err
		}
		q, b, w, _ := classify32(lane)
		out += compact(dst[out:], lane[:], s.carry.keepMask(q, b, w, width), width)
	}
	if rest := src[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return out, err
		}
		lane := s.pad(rest)
		q, b, w, _ := classify32((*[width]byte)(lane))
		out += compact(dst[out:], lane, s.carry.keepMask(q, b, w, width)&laneMask(uint(len(rest))), len(rest))
	}
	return out, nil
}

func minifySSE42(s *Scanner, dst, src []byte) (int, error) {
	const width = 16
	out := 0
	n := len(src) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(src[i:])
		if err := s.validate(lane[:], i); err != nil {
			return out, err
		}
		q, b, w, _ := classify16(lane)
		out += compact(dst[out:], lane[:], s.carry.keepMask(q, b, w, width), width)
	}
	if rest := src[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return out, err
		}
		lane := s.pad(rest)
		q, b, w, _ := classify16((*[width]byte)(lane))
		out += compact(dst[out:], lane, s.carry.keepMask(q, b, w, width)&laneMask(uint(len(rest))), len(rest))
	}
	return out, nil
}

func minifyNEON(s *Scanner, dst, src []byte) (int, error) {
	const width = 16
	out := 0
	n := len(src) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(src[i:])
		if err := s.validate(lane[:], i); err != nil {
			return out, err
		}
		q, b, w, _ := classifyNibbles16(lane)
		out += compact(dst[out:], lane[:], s.carry.keepMask(q, b, w, width), width)
	}
	if rest := src[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return out, err
		}
		lane := s.pad(rest)
		q, b, w, _ := classifyNibbles16((*[width]byte)(lane))
		out += compact(dst[out:], lane, s.carry.keepMask(q, b, w, width)&laneMask(uint(len(rest))), len(rest))
	}
	return out, nil
}

func minifyScalar(s *Scanner, dst, src []byte) (int, error) {
	const width = 8
	out := 0
	n := len(src) &^ (width - 1)
	for i := 0; i < n; i += width {
		lane := (*[width]byte)(src[i:])
		if err := s.validate(lane[:], i); err != nil {
			return out, err
		}
		q, b, w, _ := classifyTable8(lane)
		out += compact(dst[out:], lane[:], s.carry.keepMask(q, b, w, width), width)
	}
	if rest := src[n:]; len(rest) > 0 {
		if err := s.validate(rest, n); err != nil {
			return out, err
		}
		lane := s.pad(rest)
		q, b, w, _ := classifyTable8((*[width]byte)(lane))
		out += compact(dst[out:], lane, s.carry.keepMask(q, b, w, width)&laneMask(uint(len(rest))), len(rest))
	}
	return out, nil
}
