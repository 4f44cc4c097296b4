package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/theory/jsonpath"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	simdjson "github.com/biggeezerdevelopment/tapejson"
)

func (g *Globals) writer() io.Writer {
	if g.out == nil {
		g.out = os.Stdout
	}
	return g.out
}

// selector compiles an optional JSONPath expression.
func selector(expr string) (*jsonpath.Path, error) {
	if expr == "" {
		return nil, nil
	}
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", expr, err)
	}
	return path, nil
}

// emit writes doc, or the nodes path selects from it, one JSON line each.
func emit(w io.Writer, doc *simdjson.Document, path *jsonpath.Path) error {
	v, err := doc.Interface()
	if err != nil {
		return err
	}
	values := []any{v}
	if path != nil {
		values = path.Select(v)
	}
	for _, v := range values {
		line, err := marshalLine(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// ParseCmd parses single documents.
type ParseCmd struct {
	Files  []string `kong:"arg,optional,type='path',help='Input files, - for standard input'"`
	Print  bool     `kong:"short='p',help='Print the parsed value as JSON'"`
	Select string   `kong:"short='s',help='JSONPath expression selecting the values to print'"`
}

func (c *ParseCmd) Run(g *Globals) error {
	path, err := selector(c.Select)
	if err != nil {
		return err
	}
	p, err := g.newParser()
	if err != nil {
		return err
	}
	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}

	w := g.writer()
	for _, name := range files {
		data, err := readInput(name, g.Encoding)
		if err != nil {
			return err
		}
		start := time.Now()
		doc, err := p.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		g.log().Debug("parsed document",
			"file", name,
			"bytes", len(data),
			"tape_entries", len(doc.Tape()),
			"string_bytes", len(doc.Strings()),
			"elapsed", time.Since(start))

		if c.Print || path != nil {
			if err := emit(w, doc, path); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%s: %s, %d bytes, %d tape entries, %d string bytes\n",
			name, doc.Root().Type(), len(data), len(doc.Tape()), len(doc.Strings()))
	}
	return nil
}

// MinifyCmd strips insignificant whitespace.
type MinifyCmd struct {
	File   string `kong:"arg,optional,default='-',help='Input file, - for standard input'"`
	Output string `kong:"short='o',type='path',help='Output file, standard output when empty'"`
	Check  bool   `kong:"help='Validate the input before minifying'"`
}

func (c *MinifyCmd) Run(g *Globals) error {
	data, err := readInput(c.File, g.Encoding)
	if err != nil {
		return err
	}
	p, err := g.newParser()
	if err != nil {
		return err
	}
	if c.Check {
		if _, err := p.Parse(data); err != nil {
			return fmt.Errorf("%s: %w", c.File, err)
		}
	}

	dst := make([]byte, len(data))
	n, err := p.Implementation().Minify(dst, data)
	if err != nil {
		return fmt.Errorf("minify: %w", err)
	}
	g.log().Debug("minified", "implementation", p.Implementation().Name(), "in", len(data), "out", n)

	if c.Output == "" {
		_, err = g.writer().Write(dst[:n])
		return err
	}
	return os.WriteFile(c.Output, dst[:n], 0o644)
}

// ValidateCmd checks files in parallel.
type ValidateCmd struct {
	Files []string `kong:"arg,type='path',help='Files to check'"`
	Jobs  int      `kong:"short='j',default='0',help='Files checked at once, 0 for one per CPU'"`
	Quiet bool     `kong:"short='q',help='Only report invalid files'"`
}

func (c *ValidateCmd) Run(g *Globals) error {
	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	opts, err := g.options()
	if err != nil {
		return err
	}

	results := make([]error, len(c.Files))
	var eg errgroup.Group
	eg.SetLimit(jobs)
	for i, name := range c.Files {
		eg.Go(func() error {
			data, err := readInput(name, g.Encoding)
			if err != nil {
				results[i] = err
				return nil
			}
			p, err := simdjson.New(opts...)
			if err != nil {
				return err
			}
			_, results[i] = p.Parse(data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	w := g.writer()
	invalid := 0
	for i, err := range results {
		switch {
		case err != nil:
			invalid++
			fmt.Fprintf(w, "%s: %v\n", c.Files[i], err)
		case !c.Quiet:
			fmt.Fprintf(w, "%s: ok\n", c.Files[i])
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files invalid", invalid, len(c.Files))
	}
	return nil
}

// NDJSONCmd streams concatenated documents.
type NDJSONCmd struct {
	File   string `kong:"arg,optional,default='-',help='Input file, - for standard input'"`
	Select string `kong:"short='s',help='JSONPath expression applied to every document'"`
	Count  bool   `kong:"short='c',help='Only print the number of documents'"`
	Spans  bool   `kong:"help='Print the byte range of every document'"`
}

func (c *NDJSONCmd) Run(g *Globals) error {
	path, err := selector(c.Select)
	if err != nil {
		return err
	}
	data, err := readInput(c.File, g.Encoding)
	if err != nil {
		return err
	}
	p, err := g.newParser()
	if err != nil {
		return err
	}

	w := g.writer()
	progress := rate.NewLimiter(rate.Every(time.Second), 1)
	progress.Allow()

	var count int
	stream := p.ParseMany(data)
	for stream.Next() {
		count++
		if progress.Allow() {
			g.log().Info("progress", "documents", count, "offset", stream.End(), "size", len(data))
		}
		switch {
		case c.Count:
		case c.Spans:
			fmt.Fprintf(w, "%d %d\n", stream.Start(), stream.End())
		default:
			if err := emit(w, stream.Doc(), path); err != nil {
				return err
			}
		}
	}
	err = stream.Err()
	if errors.Is(err, simdjson.ErrEmpty) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("document %d: %w", count+1, err)
	}
	if c.Count {
		fmt.Fprintln(w, count)
	}
	g.log().Debug("stream done", "documents", count, "bytes", len(data))
	return nil
}
