package simdjson

import (
	"sync"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

// Implementation is one backend. Every backend produces the same structural
// index, tape and errors; they differ only in lane width.
type Implementation interface {
	Name() string
	Description() string
	Tier() Tier
	// Supported reports whether the running processor can execute it.
	Supported() bool

	// Allocate sizes p for documents of up to capacity bytes nested up to
	// maxDepth levels. Buffers only grow.
	Allocate(p *Parser, capacity, maxDepth int) error
	// Minify copies src into dst without insignificant whitespace and
	// returns the bytes written. dst must be at least len(src) long.
	Minify(dst, src []byte) (int, error)
	// Stage1 builds the structural index of buf. With streaming set, buf
	// may hold several documents and a UTF-8 error is reported by the
	// document it belongs to.
	Stage1(p *Parser, buf []byte, streaming bool) error
	// Stage2 builds the tape of the single document indexed by Stage1.
	Stage2(p *Parser, buf []byte) error
	// Stage2Next builds the tape of the next document of a streaming index
	// and returns the structural position after it.
	Stage2Next(p *Parser, buf []byte) (int, error)
	// Parse runs both stages over one document.
	Parse(p *Parser, buf []byte) error
}

type backend struct {
	tier        isa.Tier
	name        string
	description string

	scanners sync.Pool
}

var backends = [...]*backend{
	isa.TierAVX512: {tier: isa.TierAVX512, name: "avx512", description: "x86-64 AVX-512 (64-byte lanes)"},
	isa.TierAVX2:   {tier: isa.TierAVX2, name: "avx2", description: "x86-64 AVX2 (32-byte lanes)"},
	isa.TierNEON:   {tier: isa.TierNEON, name: "neon", description: "ARM NEON (16-byte lanes)"},
	isa.TierSSE42:  {tier: isa.TierSSE42, name: "sse42", description: "x86-64 SSE4.2 (16-byte lanes)"},
	isa.TierScalar: {tier: isa.TierScalar, name: "scalar", description: "generic 64-bit words with table classification"},
}

func (b *backend) Name() string        { return b.name }
func (b *backend) Description() string { return b.description }
func (b *backend) Tier() Tier          { return b.tier }

func (b *backend) Supported() bool {
	return hostDetector().Supported(b.tier)
}

func (b *backend) String() string {
	return b.name
}

func (b *backend) Allocate(p *Parser, capacity, maxDepth int) error {
	switch {
	case maxDepth <= 0:
		return jsonerr.Newf("allocate", -1, ErrInvalidArgument, "max depth %d must be positive", maxDepth)
	case capacity < 0:
		return jsonerr.Newf("allocate", -1, ErrInvalidArgument, "capacity %d must not be negative", capacity)
	case uint64(capacity) > MaxCapacity:
		return jsonerr.Newf("allocate", -1, ErrAllocation, "capacity %d exceeds the maximum of %d", capacity, uint64(MaxCapacity))
	}
	p.bind(b)

	if capacity > p.capacity || !p.allocated {
		p.log.Debug("allocating parser buffers",
			"implementation", b.name, "capacity", capacity, "previous", p.capacity, "max_depth", maxDepth)
	}
	p.scanner.Reserve(capacity)
	p.tape.Reserve(capacity, maxDepth)
	p.capacity = max(p.capacity, capacity)
	p.maxDepth = maxDepth
	// zero capacity leaves sizing to the first input
	p.allocated = p.allocated || capacity > 0
	return nil
}

func (b *backend) Minify(dst, src []byte) (int, error) {
	s, _ := b.scanners.Get().(*scanner.Scanner)
	if s == nil {
		s = scanner.New(b.tier)
	}
	defer b.scanners.Put(s)
	return s.Minify(dst, src)
}

func (b *backend) Stage1(p *Parser, buf []byte, streaming bool) error {
	p.bind(b)
	if err := p.ensure(len(buf)); err != nil {
		return err
	}
	mode := scanner.ModeWhole
	if streaming {
		mode = scanner.ModeFinal
	}
	p.pos = 0
	return p.scanner.Scan(buf, mode)
}

func (b *backend) Stage2(p *Parser, buf []byte) error {
	p.bind(b)
	return p.tape.Build(buf, p.scanner.GetStructuralIndices())
}

func (b *backend) Stage2Next(p *Parser, buf []byte) (int, error) {
	p.bind(b)
	idx := p.scanner.GetStructuralIndices()
	if p.pos < len(idx) {
		p.start = int(idx[p.pos])
	}
	next, err := p.tape.BuildNext(buf, idx, p.pos)
	if err = p.utf8Before(err); err != nil {
		return next, err
	}
	p.pos = next
	return next, nil
}

func (b *backend) Parse(p *Parser, buf []byte) error {
	if err := b.Stage1(p, buf, false); err != nil {
		return err
	}
	return b.Stage2(p, buf)
}
