// Package scanner is stage 1: it classifies input lane by lane, validates
// UTF-8 and records the offset of every structural character and of the
// first byte of every scalar token.
package scanner

import (
	"errors"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
)

// MaxCapacity is the largest input a structural index can address.
const MaxCapacity = 0xFFFFFFFF

const stage = "stage1"

// ErrIncomplete is returned in ModePartial when the window holds no complete
// document.
var ErrIncomplete = errors.New("no complete document in window")

// Mode selects how Scan treats the end of its range.
type Mode uint8

const (
	// ModeWhole scans one complete document and fails on the first error.
	ModeWhole Mode = iota
	// ModePartial scans a streaming window that more input follows. The
	// index is trimmed back to the last complete document.
	ModePartial
	// ModeFinal scans the last streaming window. Errors are recorded so the
	// documents in front of them can still be parsed.
	ModeFinal
)

// Scanner builds the structural index of one input at a time. Its buffers
// are reused across scans; it is not safe for concurrent use.
type Scanner struct {
	kernel *kernel
	tier   isa.Tier
	mode   Mode
	op     string // Op of UTF-8 errors
	base   int
	carry  carry

	structuralIndices []uint32
	tail              *AlignedBuffer

	consumed int
	utf8Err  int
}

// New returns a Scanner that runs the lane loop of tier t.
func New(t isa.Tier) *Scanner {
	k := kernelFor(t)
	if !t.Valid() {
		t = isa.TierScalar
	}
	return &Scanner{
		kernel:            k,
		tier:              t,
		structuralIndices: make([]uint32, 0, 1024),
		utf8Err:           -1,
	}
}

// Tier returns the tier the scanner was built for.
func (s *Scanner) Tier() isa.Tier {
	return s.tier
}

// Reserve grows the structural index so that n input bytes never reallocate
// it.
func (s *Scanner) Reserve(n int) {
	if cap(s.structuralIndices) < n+1 {
		s.structuralIndices = make([]uint32, 0, n+1)
	}
}

// Cap returns how many structural positions fit without growing.
func (s *Scanner) Cap() int {
	return cap(s.structuralIndices)
}

// Scan indexes all of data.
func (s *Scanner) Scan(data []byte, mode Mode) error {
	return s.ScanRange(data, 0, len(data), mode)
}

// ScanRange indexes data[from:to]. Offsets in the index, in errors and in
// Consumed are relative to the start of data.
func (s *Scanner) ScanRange(data []byte, from, to int, mode Mode) error {
	if from < 0 || to < from || to > len(data) {
		return jsonerr.Newf(stage, -1, jsonerr.ErrInvalidArgument, "range [%d:%d] outside input of %d bytes", from, to, len(data))
	}
	if uint64(to) > MaxCapacity {
		return jsonerr.Newf(stage, -1, jsonerr.ErrCapacity, "input of %d bytes exceeds the maximum of %d", to, uint64(MaxCapacity))
	}

	s.mode = mode
	s.op = stage
	s.base = from
	s.carry.reset()
	s.structuralIndices = s.structuralIndices[:0]
	s.consumed = from
	s.utf8Err = -1

	if err := s.kernel.index(s, data[from:to]); err != nil {
		return err
	}
	return s.finish(data, to)
}

// GetStructuralIndices returns the index built by the last scan. It is
// overwritten by the next one.
func (s *Scanner) GetStructuralIndices() []uint32 {
	return s.structuralIndices
}

// Consumed returns the offset just past the last complete document of the
// last scan.
func (s *Scanner) Consumed() int {
	return s.consumed
}

// UTF8Error returns the offset of the first invalid UTF-8 sequence recorded
// in a streaming mode, or -1.
func (s *Scanner) UTF8Error() int {
	return s.utf8Err
}

// validate feeds raw, which starts at range offset off, to the UTF-8 DFA.
func (s *Scanner) validate(raw []byte, off int) error {
	bad := s.carry.utf8.feed(raw, s.base+off)
	if bad < 0 {
		return nil
	}
	if s.mode == ModeWhole {
		return jsonerr.New(s.op, bad, jsonerr.ErrInvalidUTF8, "")
	}
	if s.utf8Err < 0 {
		s.utf8Err = bad
	}
	return nil
}

func (s *Scanner) finish(data []byte, to int) error {
	if off := s.carry.utf8.pending(); off >= 0 {
		switch s.mode {
		case ModeWhole:
			return jsonerr.New(stage, off, jsonerr.ErrInvalidUTF8, "truncated sequence")
		case ModeFinal:
			if s.utf8Err < 0 {
				s.utf8Err = off
			}
		}
	}
	unterminated := s.carry.inString != 0

	switch s.mode {
	case ModeWhole:
		if unterminated {
			return jsonerr.New(stage, s.last(), jsonerr.ErrMalformed, "unterminated string")
		}
		if len(s.structuralIndices) == 0 {
			return jsonerr.New(stage, -1, jsonerr.ErrEmpty, "no structural character")
		}
		s.consumed = to
	case ModeFinal:
		// an unterminated string is reported by stage 2 with its document
		s.consumed = to
	case ModePartial:
		next := to
		if unterminated {
			next = s.last()
			s.structuralIndices = s.structuralIndices[:len(s.structuralIndices)-1]
		}
		if len(s.structuralIndices) == 0 {
			if unterminated {
				return ErrIncomplete
			}
			s.consumed = to
			return nil
		}
		keep := documentBoundary(data, s.structuralIndices)
		if keep == len(s.structuralIndices) && !unterminated && scalarTouches(data, s.last(), to) {
			keep--
		}
		if keep == 0 {
			return ErrIncomplete
		}
		if keep < len(s.structuralIndices) {
			s.consumed = int(s.structuralIndices[keep])
		} else {
			s.consumed = next
		}
		s.structuralIndices = s.structuralIndices[:keep]
		if s.utf8Err >= s.consumed {
			s.utf8Err = -1
		}
	}
	return nil
}

func (s *Scanner) last() int {
	if len(s.structuralIndices) == 0 {
		return -1
	}
	return int(s.structuralIndices[len(s.structuralIndices)-1])
}

// Minify copies src into dst without the whitespace outside strings and
// returns the number of bytes written. Grammar is not checked.
func (s *Scanner) Minify(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, jsonerr.Newf("minify", -1, jsonerr.ErrInvalidArgument, "destination of %d bytes is shorter than the %d byte source", len(dst), len(src))
	}
	if uint64(len(src)) > MaxCapacity {
		return 0, jsonerr.Newf("minify", -1, jsonerr.ErrCapacity, "input of %d bytes exceeds the maximum of %d", len(src), uint64(MaxCapacity))
	}
	s.mode = ModeWhole
	s.op = "minify"
	s.base = 0
	s.carry.reset()

	n, err := s.kernel.minify(s, dst, src)
	if err != nil {
		return n, err
	}
	if off := s.carry.utf8.pending(); off >= 0 {
		return n, jsonerr.New("minify", off, jsonerr.ErrInvalidUTF8, "truncated sequence")
	}
	if s.carry.inString != 0 {
		return n, jsonerr.New("minify", -1, jsonerr.ErrMalformed, "unterminated string")
	}
	return n, nil
}
