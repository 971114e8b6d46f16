// Package compression compresses typed-buffer dumps written by the CLI.
//
// # Algorithm Selection
//
//   - Snappy/S2: fastest, moderate ratio
//   - LZ4: very fast, decent ratio
//   - Zstd: best ratio, good speed
//   - Gzip: widest compatibility
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	w, err := comp.NewWriter(file)
//	w.Write(raw)
//	w.Close()
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None writes data through unchanged
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

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2}

// ParseAlgorithm validates a user supplied algorithm name. The empty string
// means None.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return None, nil
	}
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unsupported compression algorithm: %s", s)
}

// Extension returns the conventional file suffix for a, including the dot.
func (a Algorithm) Extension() string {
	switch a {
	case Gzip:
		return ".gz"
	case Snappy:
		return ".sz"
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	case S2:
		return ".s2"
	default:
		return ""
	}
}

// FromExtension returns the algorithm whose Extension ends path, or None.
func FromExtension(path string) Algorithm {
	for _, a := range Algorithms {
		if ext := a.Extension(); ext != "" && strings.HasSuffix(path, ext) {
			return a
		}
	}
	return None
}

// Level controls the trade-off between speed and ratio.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Compressor compresses and decompresses whole buffers and streams.
// Implementations are safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// NewWriter wraps dst; Close flushes the compressed stream but does not
	// close dst.
	NewWriter(dst io.Writer) (io.WriteCloser, error)
	NewReader(src io.Reader) (io.Reader, error)
	Algorithm() Algorithm
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm
	Level     Level
}

// NewCompressor creates the compressor for config. A nil config means zstd
// at the default level.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = &Config{Algorithm: Zstd, Level: Default}
	}

	switch config.Algorithm {
	case None, "":
		return noneCompressor{}, nil
	case Gzip:
		return &gzipCompressor{level: mapGzipLevel(config.Level)}, nil
	case Snappy:
		return snappyCompressor{}, nil
	case LZ4:
		return &lz4Compressor{level: mapLZ4Level(config.Level)}, nil
	case Zstd:
		return newZstdCompressor(config.Level), nil
	case S2:
		return s2Compressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// compressWith runs data through a streaming writer into a fresh slice.
func compressWith(c Compressor, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressWith(c Compressor, data []byte) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil { //nolint:gosec // input is our own dump
		return nil, err
	}
	return buf.Bytes(), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Algorithm() Algorithm                   { return None }

func (noneCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{dst}, nil
}

func (noneCompressor) NewReader(src io.Reader) (io.Reader, error) {
	return src, nil
}

type gzipCompressor struct {
	level int
}

func (gc *gzipCompressor) Algorithm() Algorithm { return Gzip }

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(gc, data)
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(gc, data)
}

func (gc *gzipCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(dst, gc.level)
}

func (gc *gzipCompressor) NewReader(src io.Reader) (io.Reader, error) {
	return gzip.NewReader(src)
}

type snappyCompressor struct{}

func (snappyCompressor) Algorithm() Algorithm { return Snappy }

func (sc snappyCompressor) Compress(data []byte) ([]byte, error) {
	return compressWith(sc, data)
}

func (sc snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(sc, data)
}

func (snappyCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(dst), nil
}

func (snappyCompressor) NewReader(src io.Reader) (io.Reader, error) {
	return snappy.NewReader(src), nil
}

type lz4Compressor struct {
	level lz4.CompressionLevel
}

func (lc *lz4Compressor) Algorithm() Algorithm { return LZ4 }

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	return compressWith(lc, data)
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return decompressWith(lc, data)
}

func (lc *lz4Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(lc.level)); err != nil {
		return nil, err
	}
	return w, nil
}

func (lc *lz4Compressor) NewReader(src io.Reader) (io.Reader, error) {
	return lz4.NewReader(src), nil
}

type zstdCompressor struct {
	level       zstd.EncoderLevel
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(level Level) *zstdCompressor {
	zc := &zstdCompressor{level: mapZstdLevel(level)}
	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zc.level))
		return enc
	}
	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil)
		return dec
	}
	return zc
}

func (zc *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

func (zc *zstdCompressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zc.level))
}

func (zc *zstdCompressor) NewReader(src io.Reader) (io.Reader, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

type s2Compressor struct{}

func (s2Compressor) Algorithm() Algorithm { return S2 }

func (s2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Compressor) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}

func (s2Compressor) NewWriter(dst io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(dst), nil
}

func (s2Compressor) NewReader(src io.Reader) (io.Reader, error) {
	return s2.NewReader(src), nil
}

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
