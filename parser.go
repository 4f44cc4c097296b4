package simdjson

import (
	"errors"
	"io"
	"log/slog"

	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/parser"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

// Parser owns every buffer a parse needs: the structural index, the tape,
// the string buffer, the depth stack and a read buffer for ParseReader.
// Buffers are reused across parses and only grow. A Parser is not safe for
// concurrent use.
type Parser struct {
	cfg  *Config
	impl *backend
	log  *slog.Logger

	scanner *scanner.Scanner
	tape    *parser.Parser

	allocated bool
	capacity  int
	maxDepth  int

	// streaming cursor: structural position and byte offset of the next
	// document
	pos   int
	start int

	back []byte
	doc  Document
}

// New returns a Parser configured by opts. Buffers are allocated now when a
// capacity is set, otherwise on the first parse.
func New(opts ...Option) (*Parser, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig returns a Parser for cfg.
func NewWithConfig(cfg *Config) (*Parser, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	impl, _ := cfg.Implementation.(*backend)
	if impl == nil {
		impl, _ = Active().(*backend)
	}
	l := cfg.Logger
	if l == nil {
		l = Logger()
	}

	p := &Parser{
		cfg:      cfg,
		log:      l,
		maxDepth: cfg.MaxDepth,
	}
	p.bind(impl)
	if cfg.Capacity > 0 {
		if err := p.Allocate(cfg.Capacity, cfg.MaxDepth); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// bind switches p to backend b, rebuilding the tier specific pieces.
func (p *Parser) bind(b *backend) {
	if p.impl == b && p.scanner != nil {
		return
	}
	p.impl = b
	s := scanner.New(b.tier)
	if p.scanner != nil {
		s.Reserve(p.capacity)
	}
	p.scanner = s
	if p.tape == nil {
		p.tape = parser.New(scanner.FinderFor(b.tier), p.maxDepth)
	} else {
		p.tape.UseFinder(scanner.FinderFor(b.tier))
	}
}

// Allocate sizes the buffers for documents of up to capacity bytes nested
// up to maxDepth levels. A smaller capacity than the current one keeps the
// existing buffers.
func (p *Parser) Allocate(capacity, maxDepth int) error {
	if err := p.impl.Allocate(p, capacity, maxDepth); err != nil {
		return err
	}
	p.cfg.MaxDepth = maxDepth
	return nil
}

// ensure makes room for an input of n bytes before stage 1.
func (p *Parser) ensure(n int) error {
	if p.allocated && n <= p.capacity {
		return nil
	}
	if p.allocated && !p.cfg.AutoGrow {
		return jsonerr.Newf("allocate", -1, ErrCapacity, "input of %d bytes exceeds the allocated capacity of %d", n, p.capacity)
	}
	return p.impl.Allocate(p, n, p.maxDepth)
}

// Implementation returns the backend the parser runs.
func (p *Parser) Implementation() Implementation {
	return p.impl
}

// Capacity returns the input size the buffers are allocated for.
func (p *Parser) Capacity() int {
	return p.capacity
}

// MaxDepth returns the nesting limit.
func (p *Parser) MaxDepth() int {
	return p.maxDepth
}

// Parse parses data, which must hold exactly one document. The returned
// Document aliases the parser's buffers and is valid until the next call on
// p.
func (p *Parser) Parse(data []byte) (*Document, error) {
	if err := p.impl.Parse(p, data); err != nil {
		return nil, err
	}
	return p.document(), nil
}

// ParseReader reads r to the end into the parser's read buffer and parses
// it.
func (p *Parser) ParseReader(r io.Reader) (*Document, error) {
	buf, err := p.readAll(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(buf)
}

func (p *Parser) readAll(r io.Reader) ([]byte, error) {
	b := p.back[:0]
	if cap(b) == 0 {
		b = make([]byte, 0, 4096)
	}
	for {
		if len(b) == cap(b) {
			b = append(b, 0)[:len(b)]
		}
		n, err := r.Read(b[len(b):cap(b)])
		b = b[:len(b)+n]
		if errors.Is(err, io.EOF) {
			p.back = b
			return b, nil
		}
		if err != nil {
			p.back = b
			return nil, err
		}
	}
}

// Valid reports whether data is one well-formed document.
func (p *Parser) Valid(data []byte) bool {
	return p.impl.Parse(p, data) == nil
}

func (p *Parser) document() *Document {
	p.doc = Document{tape: p.tape.Tape, strings: p.tape.Strings}
	return &p.doc
}

// utf8Before turns the result of building the current streaming document
// into a UTF-8 error when stage 1 recorded one in front of the document's
// end or of the stage 2 error.
func (p *Parser) utf8Before(err error) error {
	bad := p.scanner.UTF8Error()
	if bad < 0 {
		return err
	}
	// a stray invalid byte is also a structural, so stage 2 may fail on it
	limit := p.tape.End() - 1
	if err != nil {
		limit = jsonerr.Offset(err)
		if limit < 0 {
			limit = bad
		}
	}
	if bad <= limit {
		return jsonerr.New("stage1", bad, ErrInvalidUTF8, "")
	}
	return err
}
