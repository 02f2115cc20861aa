// Package compression provides the codecs used for report files, with
// helpers to pick a codec from a file name or from magic bytes.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Type identifies a compression algorithm.
type Type uint8

const (
	// TypeGzip is the default for stored reports; every tool can open it.
	TypeGzip Type = 0
	// TypeZstd is faster and tighter; opt-in through config.
	TypeZstd Type = 1
	// TypeNone stores reports as plain JSON.
	TypeNone Type = 255
)

// String returns the config-facing name of the codec.
func (t Type) String() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Level trades speed against ratio.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

// Compressor is a whole-buffer codec.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Type returns the algorithm identifier.
	Type() Type
	// Name returns the config-facing name ("gzip", "zstd", "none").
	Name() string
}

// ============================================================================
// Gzip
// ============================================================================

// GzipCompressor implements Compressor on compress/gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor maps the generic level onto gzip's scale.
func NewGzipCompressor(level Level) *GzipCompressor {
	gzipLevel := gzip.DefaultCompression
	switch level {
	case LevelFastest:
		gzipLevel = gzip.BestSpeed
	case LevelBest:
		gzipLevel = gzip.BestCompression
	}
	return &GzipCompressor{level: gzipLevel}
}

func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCompressor) Type() Type { return TypeGzip }

func (c *GzipCompressor) Name() string { return "gzip" }

// ============================================================================
// Zstd
// ============================================================================

// ZstdCompressor implements Compressor on klauspost zstd. One instance
// is reusable and safe for concurrent Compress calls.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor maps the generic level onto zstd's speed presets.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	zstdLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		zstdLevel = zstd.SpeedFastest
	case LevelBest:
		zstdLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCompressor) Type() Type { return TypeZstd }

func (c *ZstdCompressor) Name() string { return "zstd" }

// Close releases the encoder and decoder.
func (c *ZstdCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// ============================================================================
// Pass-through
// ============================================================================

// NoOpCompressor stores data as-is.
type NoOpCompressor struct{}

func NewNoOpCompressor() *NoOpCompressor { return &NoOpCompressor{} }

func (c *NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (c *NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

func (c *NoOpCompressor) Type() Type { return TypeNone }

func (c *NoOpCompressor) Name() string { return "none" }

// ============================================================================
// Construction
// ============================================================================

// New creates a compressor by type and level.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeNone:
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// ParseType maps a config name to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "gzip", "gz", "":
		return TypeGzip, nil
	case "zstd", "zst":
		return TypeZstd, nil
	case "none":
		return TypeNone, nil
	default:
		return TypeGzip, fmt.Errorf("unknown compression name: %q", name)
	}
}

// Default returns zstd at the default level, falling back to gzip if
// zstd cannot initialize.
func Default() Compressor {
	comp, err := NewZstdCompressor(LevelDefault)
	if err != nil {
		return NewGzipCompressor(LevelDefault)
	}
	return comp
}

// Fast returns a speed-leaning compressor.
func Fast() Compressor {
	comp, err := NewZstdCompressor(LevelFastest)
	if err != nil {
		return NewGzipCompressor(LevelFastest)
	}
	return comp
}

// Best returns a ratio-leaning compressor.
func Best() Compressor {
	comp, err := NewZstdCompressor(LevelBest)
	if err != nil {
		return NewGzipCompressor(LevelBest)
	}
	return comp
}

// ============================================================================
// File Naming
// ============================================================================

// Ext returns the file suffix a report written with t carries, appended
// after ".json".
func Ext(t Type) string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// TypeForPath picks the codec implied by a file name. Unsuffixed paths
// mean plain JSON.
func TypeForPath(path string) Type {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return TypeGzip
	case strings.HasSuffix(path, ".zst"):
		return TypeZstd
	default:
		return TypeNone
	}
}

// ============================================================================
// Sniffing
// ============================================================================

// DetectType inspects magic bytes: zstd is 0x28 0xb5 0x2f 0xfd, gzip is
// 0x1f 0x8b. Anything else is treated as uncompressed.
func DetectType(data []byte) Type {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return TypeZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return TypeGzip
	}
	return TypeNone
}

// AutoDecompress sniffs the codec and decompresses. Plain data comes
// back unchanged, so callers can feed it any report file.
func AutoDecompress(data []byte) ([]byte, error) {
	switch DetectType(data) {
	case TypeZstd:
		comp, err := NewZstdCompressor(LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decompressor: %w", err)
		}
		defer comp.Close()
		return comp.Decompress(data)
	case TypeGzip:
		return NewGzipCompressor(LevelDefault).Decompress(data)
	default:
		return data, nil
	}
}

// ============================================================================
// Cleanup
// ============================================================================

// Closeable marks compressors that hold resources.
type Closeable interface {
	Close()
}

// Close closes c if it implements Closeable.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}
