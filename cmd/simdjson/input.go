package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// openInput opens name, or standard input for "-" or "".
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// decodeInput wraps r so that gzip or zstd compressed input is inflated and
// the text is converted to UTF-8.
func decodeInput(r io.Reader, encoding string) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var (
		src   io.Reader = br
		close           = func() {}
	)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip input: %w", err)
		}
		src, close = zr, func() { zr.Close() }
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd input: %w", err)
		}
		src, close = zr, zr.Close
	}

	switch encoding {
	case "", "auto":
		src = transform.NewReader(src, unicode.BOMOverride(transform.Nop))
	case "utf8":
	case "utf16le":
		src = transform.NewReader(src, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case "utf16be":
		src = transform.NewReader(src, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	default:
		close()
		return nil, nil, fmt.Errorf("unknown encoding %q", encoding)
	}
	return src, close, nil
}

// readInput reads the whole of name after decompression and decoding.
func readInput(name, encoding string) ([]byte, error) {
	f, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, done, err := decodeInput(f, encoding)
	if err != nil {
		return nil, err
	}
	defer done()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
