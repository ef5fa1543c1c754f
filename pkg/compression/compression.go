// Package compression provides transparent decompression for sample
// input files.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	// TypeNone represents no compression.
	TypeNone Type = iota
	// TypeGzip uses gzip compression.
	TypeGzip
	// TypeZstd uses zstd compression.
	TypeZstd
)

// Name returns the human-readable name of the type.
func (t Type) Name() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectType detects the compression type from magic bytes.
func DetectType(data []byte) Type {
	if bytes.HasPrefix(data, zstdMagic) {
		return TypeZstd
	}
	if bytes.HasPrefix(data, gzipMagic) {
		return TypeGzip
	}
	return TypeNone
}

// DetectTypeByName guesses the compression type from a file name
// extension.
func DetectTypeByName(name string) Type {
	switch {
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return TypeZstd
	case strings.HasSuffix(name, ".gz"):
		return TypeGzip
	default:
		return TypeNone
	}
}

// readCloser pairs a decompressing reader with the resources it owns.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewReader wraps r with the decompressor for t. TypeNone passes
// through.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case TypeZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, closers: []func() error{func() error { dec.Close(); return nil }}}, nil
	case TypeGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []func() error{gz.Close}}, nil
	default:
		return io.NopCloser(r), nil
	}
}

// OpenFile opens path, transparently decompressing by file extension.
// Closing the returned reader closes the underlying file.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f, DetectTypeByName(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	if wrapped, ok := rc.(*readCloser); ok {
		wrapped.closers = append(wrapped.closers, f.Close)
		return wrapped, nil
	}
	return &readCloser{Reader: rc, closers: []func() error{f.Close}}, nil
}

// Compress compresses data with the given type. Used by tests and by
// callers producing compressed fixtures.
func Compress(data []byte, t Type) ([]byte, error) {
	switch t {
	case TypeZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		out := enc.EncodeAll(data, make([]byte, 0, len(data)/2))
		enc.Close()
		return out, nil
	case TypeGzip:
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			gz.Close()
			return nil, fmt.Errorf("failed to write gzip data: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// AutoDecompress detects the compression type from magic bytes and
// decompresses data.
func AutoDecompress(data []byte) ([]byte, error) {
	rc, err := NewReader(bytes.NewReader(data), DetectType(data))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
