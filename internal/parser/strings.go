package parser

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
)

// parseString unescapes the string whose opening quote is at off into the
// string buffer, writes its tape entry and returns the offset just past the
// closing quote.
func (p *Parser) parseString(buf []byte, off int) (int, error) {
	start := len(p.Strings)
	p.Strings = append(p.Strings, 0, 0, 0, 0)

	i := off + 1
	for {
		n := p.find(buf[i:])
		p.Strings = append(p.Strings, buf[i:i+n]...)
		i += n
		if i >= len(buf) {
			return i, jsonerr.New(stage, off, jsonerr.ErrMalformed, "unterminated string")
		}

		switch c := buf[i]; c {
		case '"':
			binary.LittleEndian.PutUint32(p.Strings[start:], uint32(len(p.Strings)-start-4))
			p.Tape = append(p.Tape, Entry(TagString, uint64(start)))
			return i + 1, nil
		case '\\':
			next, err := p.unescape(buf, i)
			if err != nil {
				return next, err
			}
			i = next
		default:
			return i, jsonerr.Newf(stage, i, jsonerr.ErrMalformed, "control character %#x in string", c)
		}
	}
}

// unescape decodes the escape sequence at buf[i] (a backslash) and returns
// the offset after it.
func (p *Parser) unescape(buf []byte, i int) (int, error) {
	if i+1 >= len(buf) {
		return i, jsonerr.New(stage, i, jsonerr.ErrMalformed, "invalid escape sequence")
	}
	switch c := buf[i+1]; c {
	case '"', '\\', '/':
		p.Strings = append(p.Strings, c)
	case 'b':
		p.Strings = append(p.Strings, '\b')
	case 'f':
		p.Strings = append(p.Strings, '\f')
	case 'n':
		p.Strings = append(p.Strings, '\n')
	case 'r':
		p.Strings = append(p.Strings, '\r')
	case 't':
		p.Strings = append(p.Strings, '\t')
	case 'u':
		r, ok := hex4(buf, i+2)
		if !ok {
			return i, jsonerr.New(stage, i, jsonerr.ErrMalformed, "invalid unicode escape")
		}
		switch {
		case r >= 0xd800 && r < 0xdc00:
			// high surrogate: the low half must follow as another \u escape
			if i+7 >= len(buf) || buf[i+6] != '\\' || buf[i+7] != 'u' {
				return i, jsonerr.New(stage, i, jsonerr.ErrMalformed, "lone surrogate in unicode escape")
			}
			lo, ok := hex4(buf, i+8)
			if !ok || lo < 0xdc00 || lo > 0xdfff {
				return i, jsonerr.New(stage, i, jsonerr.ErrMalformed, "invalid surrogate pair in unicode escape")
			}
			p.Strings = utf8.AppendRune(p.Strings, (r-0xd800)<<10|(lo-0xdc00)+0x10000)
			return i + 12, nil
		case r >= 0xdc00 && r <= 0xdfff:
			return i, jsonerr.New(stage, i, jsonerr.ErrMalformed, "lone surrogate in unicode escape")
		}
		p.Strings = utf8.AppendRune(p.Strings, r)
		return i + 6, nil
	default:
		return i, jsonerr.Newf(stage, i, jsonerr.ErrMalformed, "invalid escape character %q", c)
	}
	return i + 2, nil
}

// hex4 decodes four hex digits at buf[i:].
func hex4(buf []byte, i int) (rune, bool) {
	if i+4 > len(buf) {
		return 0, false
	}
	var r rune
	for _, c := range buf[i : i+4] {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	return r, true
}
