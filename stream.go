package simdjson

import (
	"errors"
	"iter"

	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

// Stream walks a buffer of concatenated documents, such as NDJSON. Stage 1
// indexes a window of the buffer at a time and stage 2 builds one document
// per call to Next.
type Stream struct {
	p    *Parser
	data []byte

	window int
	from   int // start of the current window
	next   int // offset the following window starts at
	final  bool

	scanned bool
	yielded int
	start   int
	end     int
	doc     *Document
	err     error
	done    bool
}

// ParseMany returns a Stream over the documents in data. Documents may be
// separated by whitespace or follow each other directly.
func (p *Parser) ParseMany(data []byte) *Stream {
	window := p.cfg.BatchSize
	if p.allocated && !p.cfg.AutoGrow && p.capacity > 0 {
		window = min(window, p.capacity)
	}
	return &Stream{p: p, data: data, window: window}
}

// Next builds the next document. It returns false at the end of the buffer
// or on the first error; Err tells them apart.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	idx := s.p.scanner.GetStructuralIndices()
	for !s.scanned || s.p.pos >= len(idx) {
		if s.scanned && s.final {
			s.finish(nil)
			return false
		}
		if s.scanned {
			s.from = s.next
		}
		if err := s.scan(); err != nil {
			s.finish(err)
			return false
		}
		idx = s.p.scanner.GetStructuralIndices()
	}

	if _, err := s.p.impl.Stage2Next(s.p, s.data); err != nil {
		s.finish(err)
		return false
	}
	s.start = s.p.start
	s.end = s.p.tape.End()
	s.doc = s.p.document()
	s.yielded++
	return true
}

// scan indexes the window at s.from, doubling it until it holds a complete
// document or reaches the end of the buffer.
func (s *Stream) scan() error {
	for {
		to := s.from + s.window
		mode := scanner.ModePartial
		if to >= len(s.data) || to < s.from {
			to = len(s.data)
			mode = scanner.ModeFinal
		}
		if err := s.p.ensure(to - s.from); err != nil {
			return err
		}

		err := s.p.scanner.ScanRange(s.data, s.from, to, mode)
		if errors.Is(err, scanner.ErrIncomplete) {
			s.window *= 2
			s.p.log.Debug("growing stream window", "offset", s.from, "window", s.window)
			continue
		}
		if err != nil {
			return err
		}
		s.scanned = true
		s.final = mode == scanner.ModeFinal
		s.next = s.p.scanner.Consumed()
		s.p.pos = 0
		return nil
	}
}

func (s *Stream) finish(err error) {
	s.done = true
	s.doc = nil
	if err == nil && s.yielded == 0 {
		err = jsonerr.New("stream", -1, ErrEmpty, "no document")
	}
	s.err = err
}

// Doc returns the document built by the last successful Next. It is
// overwritten by the following call.
func (s *Stream) Doc() *Document {
	return s.doc
}

// Err returns the error that stopped the stream, or nil at a clean end.
func (s *Stream) Err() error {
	return s.err
}

// Start returns the offset of the first byte of the current document.
func (s *Stream) Start() int {
	return s.start
}

// End returns the offset just past the current document.
func (s *Stream) End() int {
	return s.end
}

// All yields every document, then the stopping error if there is one.
func (s *Stream) All() iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		for s.Next() {
			if !yield(s.doc, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}
