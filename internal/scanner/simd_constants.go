package scanner

// Character classes used by the scalar tier, the stage 2 delimiter checks and
// the string run finder.
const (
	CharClassStructural = 0x01 // {}[]:,
	CharClassWhitespace = 0x02 // space, tab, newline, carriage return
	CharClassQuote      = 0x04 // "
	CharClassBackslash  = 0x08 // \
	CharClassControl    = 0x10 // bytes below 0x20, never allowed raw inside strings

	// CharClassDelimiter ends a number or literal token.
	CharClassDelimiter = CharClassStructural | CharClassWhitespace

	// CharClassStringStop ends a run of ordinary string bytes.
	CharClassStringStop = CharClassQuote | CharClassBackslash | CharClassControl
)

// CharClassLookup maps every byte to its class bits (256 bytes, cache-friendly).
var CharClassLookup = buildCharClassLookup()

func buildCharClassLookup() [256]uint8 {
	var t [256]uint8
	for c := 0; c < 0x20; c++ {
		t[c] = CharClassControl
	}
	for _, c := range []byte("{}[]:,") {
		t[c] = CharClassStructural
	}
	t[' '] = CharClassWhitespace
	t['\t'] |= CharClassWhitespace
	t['\n'] |= CharClassWhitespace
	t['\r'] |= CharClassWhitespace
	t['"'] = CharClassQuote
	t['\\'] = CharClassBackslash
	return t
}

// IsDelimiter reports whether c may directly follow a number or literal.
func IsDelimiter(c byte) bool {
	return CharClassLookup[c]&CharClassDelimiter != 0
}

// IsWhitespace reports whether c is insignificant JSON whitespace.
func IsWhitespace(c byte) bool {
	return CharClassLookup[c]&CharClassWhitespace != 0
}

// Nibble tables for the 16-byte table-lookup tier: a byte belongs to a class
// when nibbleLo[c&15] & nibbleHi[c>>4] has one of the class bits set.
const (
	nibbleTabNLCR    = 0x01 // \t \n \r
	nibbleSpace      = 0x02 // ' '
	nibbleComma      = 0x04 // ,
	nibbleColon      = 0x08 // :
	nibbleBrackets   = 0x10 // [ ] { }
	nibbleWhitespace = nibbleTabNLCR | nibbleSpace
	nibbleOperator   = nibbleComma | nibbleColon | nibbleBrackets
)

var nibbleLo = [16]uint8{
	0x0: nibbleSpace,
	0x9: nibbleTabNLCR,
	0xA: nibbleTabNLCR | nibbleColon,
	0xB: nibbleBrackets,
	0xC: nibbleComma,
	0xD: nibbleTabNLCR | nibbleBrackets,
}

var nibbleHi = [16]uint8{
	0x0: nibbleTabNLCR,
	0x2: nibbleSpace | nibbleComma,
	0x3: nibbleColon,
	0x5: nibbleBrackets,
	0x7: nibbleBrackets,
}
