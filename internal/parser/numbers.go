package parser

import (
	"errors"
	"math"
	"strconv"
	"unsafe"

	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// number parses the number token at off and appends its entry and value
// word.
func (p *Parser) number(buf []byte, off int) error {
	tag, raw, end, err := ParseNumber(buf, off)
	if err != nil {
		return err
	}
	p.Tape = append(p.Tape, Entry(tag, 0), raw)
	p.end = end
	return nil
}

// ParseNumber parses the JSON number starting at buf[off] and returns its
// tag, the raw 64-bit value and the offset just past it. Integers that fit
// int64 are TagInt64, larger non-negative ones that fit uint64 are TagUint64
// and everything else is TagFloat64.
func ParseNumber(buf []byte, off int) (Tag, uint64, int, error) {
	i := off
	neg := false
	if i < len(buf) && buf[i] == '-' {
		neg = true
		i++
	}

	var v uint64
	overflow := false
	switch {
	case i < len(buf) && buf[i] == '0':
		i++
	case i < len(buf) && isDigit(buf[i]):
		for ; i < len(buf) && isDigit(buf[i]); i++ {
			d := uint64(buf[i] - '0')
			if v > (math.MaxUint64-d)/10 {
				overflow = true
			}
			v = v*10 + d
		}
	default:
		return 0, 0, i, jsonerr.New(stage, off, jsonerr.ErrMalformed, "invalid number: expected digit")
	}
	if i < len(buf) && isDigit(buf[i]) {
		return 0, 0, i, jsonerr.New(stage, off, jsonerr.ErrMalformed, "invalid number: leading zero")
	}

	isFloat := false
	if i < len(buf) && buf[i] == '.' {
		isFloat = true
		i++
		if i >= len(buf) || !isDigit(buf[i]) {
			return 0, 0, i, jsonerr.New(stage, off, jsonerr.ErrMalformed, "invalid number: expected digit after '.'")
		}
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
	}
	if i < len(buf) && (buf[i] == 'e' || buf[i] == 'E') {
		isFloat = true
		i++
		if i < len(buf) && (buf[i] == '+' || buf[i] == '-') {
			i++
		}
		if i >= len(buf) || !isDigit(buf[i]) {
			return 0, 0, i, jsonerr.New(stage, off, jsonerr.ErrMalformed, "invalid number: expected digit in exponent")
		}
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
	}
	if i < len(buf) && !scanner.IsDelimiter(buf[i]) {
		return 0, 0, i, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "invalid number: unexpected %q", buf[i])
	}

	if !isFloat && !overflow {
		switch {
		case !neg && v <= math.MaxInt64:
			return TagInt64, v, i, nil
		case !neg:
			return TagUint64, v, i, nil
		case v <= 1<<63:
			return TagInt64, -v, i, nil
		}
	}

	text := buf[off:i]
	f, err := strconv.ParseFloat(unsafe.String(unsafe.SliceData(text), len(text)), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, 0, i, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "invalid number: %v", err)
	}
	return TagFloat64, math.Float64bits(f), i, nil
}
