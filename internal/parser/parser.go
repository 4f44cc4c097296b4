// Package parser is stage 2: it walks the structural index, checks the
// grammar and writes the tape and the string buffer.
package parser

import (
	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

const stage = "stage2"

// state is what the tape builder expects from the next structural.
type state uint8

// Builder states.
const (
	ExpectValue state = iota
	ExpectKey
	ExpectColon
	ExpectCommaOrClose
	Done
)

// scope is one open container on the depth stack.
type scope struct {
	start  int // tape index of the start entry
	count  int
	object bool
}

// Parser holds the output buffers of stage 2. Buffers are reused across
// builds and only grow.
type Parser struct {
	Tape    []uint64
	Strings []byte

	scopes   []scope
	maxDepth int
	find     scanner.StringFinder

	// offset just past the last document built
	end int
}

// New returns a Parser that locates string runs with find.
func New(find scanner.StringFinder, maxDepth int) *Parser {
	if find == nil {
		find = scanner.FinderFor(isa.TierScalar)
	}
	return &Parser{
		find:     find,
		maxDepth: maxDepth,
		scopes:   make([]scope, 0, maxDepth),
	}
}

// UseFinder switches the string run finder, for instance after the backend
// changed.
func (p *Parser) UseFinder(find scanner.StringFinder) {
	if find != nil {
		p.find = find
	}
}

// MaxDepth returns the nesting limit.
func (p *Parser) MaxDepth() int {
	return p.maxDepth
}

// Reserve sizes the buffers for documents of up to capacity bytes nested up
// to maxDepth levels. It never shrinks them.
func (p *Parser) Reserve(capacity, maxDepth int) {
	tape := (capacity + 3 + 63) &^ 63
	if cap(p.Tape) < tape {
		p.Tape = make([]uint64, 0, tape)
	}
	if strs := 2*capacity + 32; cap(p.Strings) < strs {
		p.Strings = make([]byte, 0, strs)
	}
	if cap(p.scopes) < maxDepth {
		p.scopes = make([]scope, 0, maxDepth)
	}
	p.maxDepth = maxDepth
}

// End returns the offset just past the last document built.
func (p *Parser) End() int {
	return p.end
}

// Build parses the single document described by idx. Anything after it is
// an error.
func (p *Parser) Build(buf []byte, idx []uint32) error {
	next, err := p.build(buf, idx, 0)
	if err != nil {
		return err
	}
	if next < len(idx) {
		return jsonerr.New(stage, int(idx[next]), jsonerr.ErrMalformed, "content after the root value")
	}
	return nil
}

// BuildNext parses the document starting at structural position pos and
// returns the position of the one after it.
func (p *Parser) BuildNext(buf []byte, idx []uint32, pos int) (int, error) {
	return p.build(buf, idx, pos)
}

func (p *Parser) build(buf []byte, idx []uint32, pos int) (int, error) {
	p.Tape = append(p.Tape[:0], Entry(TagRoot, 0))
	p.Strings = p.Strings[:0]
	p.scopes = p.scopes[:0]

	if pos >= len(idx) {
		return pos, jsonerr.New(stage, -1, jsonerr.ErrEmpty, "no value")
	}

	st := ExpectValue
	comma := -1 // offset of the comma just consumed
	for st != Done {
		if pos >= len(idx) {
			return pos, jsonerr.New(stage, len(buf), jsonerr.ErrMalformed, "unexpected end of input")
		}
		off := int(idx[pos])
		c := buf[off]
		pos++

		var err error
		switch st {
		case ExpectValue:
			if comma >= 0 && c == ']' {
				return pos, jsonerr.New(stage, comma, jsonerr.ErrMalformed, "trailing comma")
			}
			st, pos, err = p.value(buf, idx, pos, off, c)
		case ExpectKey:
			if c != '"' {
				if comma >= 0 && c == '}' {
					return pos, jsonerr.New(stage, comma, jsonerr.ErrMalformed, "trailing comma")
				}
				return pos, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "expected string key, found %q", c)
			}
			var end int
			if end, err = p.parseString(buf, off); err == nil {
				p.end = end
				st = ExpectColon
			}
		case ExpectColon:
			if c != ':' {
				return pos, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "expected ':' after key, found %q", c)
			}
			st = ExpectValue
		case ExpectCommaOrClose:
			top := &p.scopes[len(p.scopes)-1]
			switch {
			case c == ',':
				comma = off
				if top.object {
					st = ExpectKey
				} else {
					st = ExpectValue
				}
				continue
			case c == '}' && top.object, c == ']' && !top.object:
				st = p.close(off)
			case c == '}' || c == ']':
				return pos, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "unmatched %q", c)
			default:
				return pos, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "expected ',' or closing bracket, found %q", c)
			}
		}
		if err != nil {
			return pos, err
		}
		comma = -1
	}

	p.Tape = append(p.Tape, Entry(TagRoot, 0))
	p.Tape[0] = Entry(TagRoot, uint64(len(p.Tape)-1))
	return pos, nil
}

// value handles a structural in ExpectValue.
func (p *Parser) value(buf []byte, idx []uint32, pos, off int, c byte) (state, int, error) {
	switch c {
	case '{', '[':
		if len(p.scopes) >= p.maxDepth {
			return Done, pos, jsonerr.Newf(stage, off, jsonerr.ErrDepth, "nesting deeper than %d", p.maxDepth)
		}
		object := c == '{'
		p.scopes = append(p.scopes, scope{start: len(p.Tape), object: object})
		p.Tape = append(p.Tape, Entry(Tag(c), 0))

		closer := byte(']')
		if object {
			closer = '}'
		}
		if pos < len(idx) && buf[idx[pos]] == closer {
			return p.close(int(idx[pos])), pos + 1, nil
		}
		if object {
			return ExpectKey, pos, nil
		}
		return ExpectValue, pos, nil

	case '"':
		end, err := p.parseString(buf, off)
		if err != nil {
			return Done, pos, err
		}
		p.end = end
	case 't':
		if err := p.literal(buf, off, "true", TagTrue); err != nil {
			return Done, pos, err
		}
	case 'f':
		if err := p.literal(buf, off, "false", TagFalse); err != nil {
			return Done, pos, err
		}
	case 'n':
		if err := p.literal(buf, off, "null", TagNull); err != nil {
			return Done, pos, err
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := p.number(buf, off); err != nil {
			return Done, pos, err
		}
	default:
		return Done, pos, jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "expected value, found %q", c)
	}
	return p.afterValue(), pos, nil
}

// close writes the end entry of the innermost container, backfills its
// start entry and pops it.
func (p *Parser) close(off int) state {
	top := p.scopes[len(p.scopes)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]

	end := len(p.Tape)
	tag := TagArrayEnd
	if top.object {
		tag = TagObjectEnd
	}
	p.Tape = append(p.Tape, Entry(tag, uint64(top.start)))
	p.Tape[top.start] = Entry(EntryTag(p.Tape[top.start]), ContainerPayload(top.count, end))
	p.end = off + 1
	return p.afterValue()
}

func (p *Parser) afterValue() state {
	if len(p.scopes) == 0 {
		return Done
	}
	p.scopes[len(p.scopes)-1].count++
	return ExpectCommaOrClose
}

func (p *Parser) literal(buf []byte, off int, word string, tag Tag) error {
	end := off + len(word)
	if end > len(buf) || string(buf[off:end]) != word {
		return jsonerr.Newf(stage, off, jsonerr.ErrMalformed, "invalid literal, expected %s", word)
	}
	if end < len(buf) && !scanner.IsDelimiter(buf[end]) {
		return jsonerr.Newf(stage, end, jsonerr.ErrMalformed, "unexpected %q after %s", buf[end], word)
	}
	p.Tape = append(p.Tape, Entry(tag, 0))
	p.end = end
	return nil
}
