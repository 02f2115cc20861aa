// Package writer serializes measurement reports to JSON, optionally
// compressed.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mem-analysis/pkg/compression"
)

// JSONWriter writes values as JSON.
type JSONWriter[T any] struct {
	// Indent is the indentation for pretty printing. Empty means
	// compact output.
	Indent string
}

// NewJSONWriter creates a compact JSON writer.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates an indenting JSON writer.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes data onto w.
func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	encoder := json.NewEncoder(out)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile encodes data into the named file.
func (w *JSONWriter[T]) WriteToFile(data T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// CompressedWriter writes values as compressed JSON using a pluggable
// codec.
type CompressedWriter[T any] struct {
	comp compression.Compressor
}

// NewGzipWriter creates a writer producing gzipped JSON, the stored
// report format.
func NewGzipWriter[T any]() *CompressedWriter[T] {
	return &CompressedWriter[T]{comp: compression.NewGzipCompressor(compression.LevelDefault)}
}

// NewCompressedWriter creates a writer with the given codec.
func NewCompressedWriter[T any](comp compression.Compressor) *CompressedWriter[T] {
	return &CompressedWriter[T]{comp: comp}
}

// Write encodes and compresses data onto out.
func (w *CompressedWriter[T]) Write(data T, out io.Writer) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	packed, err := w.comp.Compress(encoded)
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	if _, err := out.Write(packed); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

// WriteToFile encodes and compresses data into the named file.
func (w *CompressedWriter[T]) WriteToFile(data T, path string) error {
	_, err := w.WriteToFileWithStats(data, path)
	return err
}

// WriteResult describes one written file.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFileWithStats writes the file and reports raw and compressed
// sizes.
func (w *CompressedWriter[T]) WriteToFileWithStats(data T, path string) (*WriteResult, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	packed, err := w.comp.Compress(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(packed); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	pct := 0.0
	if len(encoded) > 0 {
		pct = float64(len(packed)) / float64(len(encoded)) * 100
	}
	return &WriteResult{
		JSONSize:       int64(len(encoded)),
		CompressedSize: int64(len(packed)),
		CompressionPct: pct,
	}, nil
}

// FileWriter writes one value into a named file.
type FileWriter[T any] interface {
	WriteToFile(data T, path string) error
}

// ForPath returns the writer matching a file name: pretty JSON for
// plain paths, compressed JSON for .gz and .zst suffixes.
func ForPath[T any](path string) (FileWriter[T], error) {
	switch compression.TypeForPath(filepath.Base(path)) {
	case compression.TypeGzip:
		return NewGzipWriter[T](), nil
	case compression.TypeZstd:
		comp, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return NewCompressedWriter[T](comp), nil
	default:
		return NewPrettyJSONWriter[T](), nil
	}
}
