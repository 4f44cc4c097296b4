// Package simdjson parses JSON in two stages: a lane-parallel structural
// indexer followed by a tape builder. The widest backend the processor
// supports is chosen once per process.
package simdjson

import (
	"errors"
	"io"
)

// Parse parses one document with a pooled parser and returns a copy that
// stays valid.
func Parse(data []byte) (*Document, error) {
	d, err := newDecoder()
	if err != nil {
		return nil, err
	}
	defer d.release()

	doc, err := d.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Valid reports whether data is exactly one well-formed JSON document.
func Valid(data []byte) bool {
	d, err := newDecoder()
	if err != nil {
		return false
	}
	defer d.release()

	return d.parser.Valid(data)
}

// Unmarshal parses data and stores the result in the value pointed to by v.
// Numbers decode into any numeric kind they fit; into an empty interface
// they become int64, uint64 or float64.
func Unmarshal(data []byte, v any) error {
	d, err := newDecoder()
	if err != nil {
		return err
	}
	defer d.release()

	return d.unmarshal(data, v)
}

// Minify returns src without whitespace outside strings, using the active
// backend. Grammar is not checked.
func Minify(src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	n, err := Active().Minify(dst, src)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// MinifyTo minifies src into dst, which must be at least len(src) bytes,
// and returns the number of bytes written.
func MinifyTo(dst, src []byte) (int, error) {
	return Active().Minify(dst, src)
}

// Decoder reads a stream of concatenated documents from r and decodes them
// one at a time.
type Decoder struct {
	r      io.Reader
	parser *Parser
	stream *Stream
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, parser: p}, nil
}

// Decode stores the next document in v. It returns io.EOF after the last
// one.
func (d *Decoder) Decode(v any) error {
	if d.stream == nil {
		buf, err := d.parser.readAll(d.r)
		if err != nil {
			return err
		}
		d.stream = d.parser.ParseMany(buf)
	}
	if !d.stream.Next() {
		if err := d.stream.Err(); err != nil && !errors.Is(err, ErrEmpty) {
			return err
		}
		return io.EOF
	}
	return decodeDocument(d.stream.Doc(), v)
}
