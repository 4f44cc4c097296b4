package scanner

import (
	"encoding/binary"
)

// SIMD-within-a-register helpers. Each uint64 word holds eight input bytes in
// little-endian order, so byte i of a word maps to bit i of the packed mask.
const (
	onesBytes  = 0x0101010101010101
	highBits   = 0x8080808080808080
	low7Bits   = 0x7f7f7f7f7f7f7f7f
	caseBits   = 0x2020202020202020
	upper3Bits = 0xe0e0e0e0e0e0e0e0
	packMagic  = 0x0102040810204080
)

// zeroBytes sets the high bit of every zero byte of x, with no false
// positives from borrows.
func zeroBytes(x uint64) uint64 {
	return ^((x&low7Bits + low7Bits) | x | low7Bits)
}

// eqBytes sets the high bit of every byte of w equal to c.
func eqBytes(w uint64, c byte) uint64 {
	return zeroBytes(w ^ uint64(c)*onesBytes)
}

// movemask packs the high bit of each byte into the low 8 bits.
func movemask(x uint64) uint64 {
	return ((x >> 7) * packMagic) >> 56
}

func classifyWord(w uint64) (quote, bs, ws, op uint64) {
	folded := w | caseBits // '[' -> '{', ']' -> '}'
	quote = movemask(eqBytes(w, '"'))
	bs = movemask(eqBytes(w, '\\'))
	ws = movemask(eqBytes(w, ' ') | eqBytes(w, '\t') | eqBytes(w, '\n') | eqBytes(w, '\r'))
	op = movemask(eqBytes(folded, '{') | eqBytes(folded, '}') | eqBytes(w, ':') | eqBytes(w, ','))
	return
}

func classify16(p *[16]byte) (quote, bs, ws, op uint64) {
	q0, b0, w0, o0 := classifyWord(binary.LittleEndian.Uint64(p[0:]))
	q1, b1, w1, o1 := classifyWord(binary.LittleEndian.Uint64(p[8:]))
	return q0 | q1<<8, b0 | b1<<8, w0 | w1<<8, o0 | o1<<8
}

func classify32(p *[32]byte) (quote, bs, ws, op uint64) {
	for i := 0; i < 4; i++ {
		q, b, w, o := classifyWord(binary.LittleEndian.Uint64(p[i*8:]))
		shift := uint(i * 8)
		quote |= q << shift
		bs |= b << shift
		ws |= w << shift
		op |= o << shift
	}
	return
}

func classify64(p *[64]byte) (quote, bs, ws, op uint64) {
	for i := 0; i < 8; i++ {
		q, b, w, o := classifyWord(binary.LittleEndian.Uint64(p[i*8:]))
		shift := uint(i * 8)
		quote |= q << shift
		bs |= b << shift
		ws |= w << shift
		op |= o << shift
	}
	return
}

// nonzero returns 1 when 0 < x < 256 and 0 when x == 0, without branching.
func nonzero(x uint64) uint64 {
	return (x + 0xff) >> 8
}

// classifyNibbles16 classifies a 16-byte lane with the split nibble tables
// the 128-bit table-lookup instructions use.
func classifyNibbles16(p *[16]byte) (quote, bs, ws, op uint64) {
	for i, c := range p {
		cls := uint64(nibbleLo[c&0xf] & nibbleHi[c>>4])
		ws |= nonzero(cls&nibbleWhitespace) << uint(i)
		op |= nonzero(cls&nibbleOperator) << uint(i)
		quote |= (nonzero(uint64(c^'"')) ^ 1) << uint(i)
		bs |= (nonzero(uint64(c^'\\')) ^ 1) << uint(i)
	}
	return
}

// classifyTable8 is the scalar tier: one lookup per byte in CharClassLookup.
func classifyTable8(p *[8]byte) (quote, bs, ws, op uint64) {
	for i, c := range p {
		cls := uint64(CharClassLookup[c])
		op |= (cls & CharClassStructural) << uint(i)
		ws |= (cls & CharClassWhitespace) >> 1 << uint(i)
		quote |= (cls & CharClassQuote) >> 2 << uint(i)
		bs |= (cls & CharClassBackslash) >> 3 << uint(i)
	}
	return
}

// isASCII reports whether no byte of b has its high bit set.
func isASCII(b []byte) bool {
	var acc uint64
	for len(b) >= 8 {
		acc |= binary.LittleEndian.Uint64(b)
		b = b[8:]
	}
	for _, c := range b {
		acc |= uint64(c)
	}
	return acc&highBits == 0
}
