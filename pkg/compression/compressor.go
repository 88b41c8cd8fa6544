// Package compression provides stream compression for tollframe input and
// output files. The algorithm is usually chosen from the file extension, so
// "trips.csv.zst" is read through a zstd decoder and "out.json.gz" written
// through a gzip encoder.
//
// # Algorithms
//
//   - Gzip: wide compatibility, good compression (.gz)
//   - Zstd: best compression ratio, good speed (.zst)
//   - Snappy: framed snappy stream written by the s2 encoder (.sz)
//   - S2: snappy-compatible with better compression (.s2)
//   - LZ4: fastest, decent compression (.lz4)
//
// # Basic Usage
//
//	w, err := compression.NewWriter(f, compression.Zstd, compression.Default)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	r, err := compression.NewReader(f, compression.AlgorithmFromPath(path))
package compression

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/tollframe/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Algorithms lists every supported algorithm
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2}

var extensions = map[Algorithm]string{
	Gzip:   ".gz",
	Snappy: ".sz",
	LZ4:    ".lz4",
	Zstd:   ".zst",
	S2:     ".s2",
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// ParseAlgorithm converts a configuration value to an Algorithm. The empty
// string means None.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return None, nil
	}
	a := Algorithm(strings.ToLower(s))
	for _, known := range Algorithms {
		if a == known {
			return a, nil
		}
	}
	return None, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", s)
}

// AlgorithmFromPath returns the algorithm implied by the extension of path,
// or None when the extension is not a compression suffix.
func AlgorithmFromPath(path string) Algorithm {
	ext := strings.ToLower(filepath.Ext(path))
	for a, e := range extensions {
		if e == ext {
			return a
		}
	}
	return None
}

// TrimExtension removes a trailing compression suffix from path
func TrimExtension(path string) string {
	if a := AlgorithmFromPath(path); a != None {
		return path[:len(path)-len(filepath.Ext(path))]
	}
	return path
}

// Extension returns the file suffix of a, or "" for None
func (a Algorithm) Extension() string {
	return extensions[a]
}

// NewWriter returns a writer that compresses into dst. Closing it flushes
// the compressed stream but does not close dst.
func NewWriter(dst io.Writer, a Algorithm, level Level) (io.WriteCloser, error) {
	switch a {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		w, err := gzip.NewWriterLevel(dst, mapGzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "gzip writer")
		}
		return w, nil
	case Zstd:
		w, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "zstd writer")
		}
		return w, nil
	case Snappy:
		return s2.NewWriter(dst, s2.WriterSnappyCompat()), nil
	case S2:
		opts := []s2.WriterOption{}
		if level >= Better {
			opts = append(opts, s2.WriterBetterCompression())
		}
		return s2.NewWriter(dst, opts...), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "lz4 writer")
		}
		return w, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", a)
	}
}

// NewReader returns a reader that decompresses src. Closing it releases
// decoder resources but does not close src.
func NewReader(src io.Reader, a Algorithm) (io.ReadCloser, error) {
	switch a {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		r, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "gzip reader")
		}
		return r, nil
	case Zstd:
		d, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "zstd reader")
		}
		return zstdReadCloser{d}, nil
	case Snappy, S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", a)
	}
}

// CompressStream compresses everything from src into dst.
func CompressStream(dst io.Writer, src io.Reader, a Algorithm, level Level) error {
	w, err := NewWriter(dst, a, level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("%s compress", a))
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("%s compress", a))
	}
	return nil
}

// DecompressStream decompresses everything from src into dst.
func DecompressStream(dst io.Writer, src io.Reader, a Algorithm) error {
	r, err := NewReader(src, a)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(dst, r); err != nil { //nolint:gosec // inputs are local files chosen by the operator
		return errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("%s decompress", a))
	}
	return nil
}

// Compress is CompressStream over byte slices
func Compress(data []byte, a Algorithm, level Level) ([]byte, error) {
	var buf bytes.Buffer
	if err := CompressStream(&buf, bytes.NewReader(data), a, level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress is DecompressStream over byte slices
func Decompress(data []byte, a Algorithm) ([]byte, error) {
	var buf bytes.Buffer
	if err := DecompressStream(&buf, bytes.NewReader(data), a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
