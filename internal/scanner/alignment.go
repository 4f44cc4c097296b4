package scanner

import (
	"unsafe"
)

const (
	// CacheLineSize is the alignment of the tail scratch and the widest lane.
	CacheLineSize = 64
)

// AlignedBuffer is a byte slice whose first byte sits on an alignment
// boundary.
type AlignedBuffer struct {
	data    []byte
	aligned []byte
}

// NewAlignedBuffer allocates size bytes aligned to alignment, which must be a
// power of two.
func NewAlignedBuffer(size int, alignment int) *AlignedBuffer {
	data := make([]byte, size+alignment-1)

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	offset := int((addr+uintptr(alignment-1))&^uintptr(alignment-1) - addr)

	return &AlignedBuffer{
		data:    data,
		aligned: data[offset : offset+size : offset+size],
	}
}

// Bytes returns the aligned byte slice
func (ab *AlignedBuffer) Bytes() []byte {
	return ab.aligned
}

// IsAligned checks if a pointer is aligned to the specified boundary
func IsAligned(ptr unsafe.Pointer, alignment int) bool {
	return uintptr(ptr)&uintptr(alignment-1) == 0
}

// pad copies the final partial lane into the scanner's scratch and fills the
// remainder with spaces, which classify as whitespace and never change the
// string or scalar state.
func (s *Scanner) pad(rest []byte) []byte {
	if s.tail == nil {
		s.tail = NewAlignedBuffer(CacheLineSize, CacheLineSize)
	}
	lane := s.tail.Bytes()
	n := copy(lane, rest)
	for i := n; i < len(lane); i++ {
		lane[i] = ' '
	}
	return lane
}
