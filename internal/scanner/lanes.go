package scanner

import (
	"math/bits"
)

const evenBits = 0x5555555555555555

// carry is everything that crosses a lane boundary.
type carry struct {
	// 1 when the first byte of the next lane is escaped by a backslash
	prevEscaped uint64
	// all ones when the next lane starts inside a string
	inString uint64
	// 1 when the last byte of the previous lane was a non-quote scalar
	prevScalar uint64
	utf8       utf8State
}

func (c *carry) reset() {
	*c = carry{}
}

func laneMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// escaped returns the bits of characters preceded by an odd run of
// backslashes. Runs may start in an earlier lane.
func (c *carry) escaped(bs uint64, width uint, mask uint64) uint64 {
	if bs == 0 {
		e := c.prevEscaped
		c.prevEscaped = 0
		return e
	}
	// an escaped backslash does not escape what follows it
	bs &^= c.prevEscaped
	followsEscape := (bs<<1 | c.prevEscaped) & mask

	oddStarts := bs &^ evenBits &^ followsEscape
	var evenSeqs, overflow uint64
	if width == 64 {
		evenSeqs, overflow = bits.Add64(oddStarts, bs, 0)
	} else {
		sum := oddStarts + bs
		evenSeqs, overflow = sum&mask, sum>>width
	}
	c.prevEscaped = overflow
	invert := evenSeqs << 1
	return (evenBits ^ invert) & followsEscape
}

// prefixXor turns quote bits into a mask that is set from an opening quote up
// to, but excluding, its closing quote.
func prefixXor(x uint64) uint64 {
	x ^= x << 1
	x ^= x << 2
	x ^= x << 4
	x ^= x << 8
	x ^= x << 16
	x ^= x << 32
	return x
}

// strings resolves escapes and returns the unescaped quotes and the in-string
// mask for one lane.
func (c *carry) strings(quote, bs uint64, width uint, mask uint64) (quotes, inString uint64) {
	quotes = quote &^ c.escaped(bs, width, mask)
	inString = (prefixXor(quotes) ^ c.inString) & mask
	c.inString = -(inString >> (width - 1) & 1)
	return quotes, inString
}

// structurals computes the structural starts of a lane: operators plus the
// first byte of every scalar token, minus anything inside a string.
func (c *carry) structurals(quote, bs, ws, op uint64, width uint) uint64 {
	mask := laneMask(width)
	quotes, inString := c.strings(quote, bs, width, mask)

	scalar := ^(op | ws) & mask
	nonQuoteScalar := scalar &^ quotes
	follows := (nonQuoteScalar<<1 | c.prevScalar) & mask
	c.prevScalar = nonQuoteScalar >> (width - 1) & 1

	stringTail := inString ^ quotes
	return (op | scalar&^follows) &^ stringTail
}

// keepMask returns the bytes the minifier copies: everything except
// whitespace outside strings.
func (c *carry) keepMask(quote, bs, ws uint64, width uint) uint64 {
	mask := laneMask(width)
	quotes, inString := c.strings(quote, bs, width, mask)
	return ^(ws &^ (inString ^ quotes)) & mask
}

// flatten appends base+position for every set bit of m.
func flatten(dst []uint32, base int, m uint64) []uint32 {
	for m != 0 {
		dst = append(dst, uint32(base+bits.TrailingZeros64(m)))
		m &= m - 1
	}
	return dst
}

// compact copies the bytes of lane selected by keep into dst and returns the
// number written.
func compact(dst, lane []byte, keep uint64, n int) int {
	if keep == laneMask(uint(n)) {
		return copy(dst, lane[:n])
	}
	k := 0
	for keep != 0 {
		dst[k] = lane[bits.TrailingZeros64(keep)]
		k++
		keep &= keep - 1
	}
	return k
}
