// Package loader decodes input documents into object trees the
// measurement engine can walk. A decoded JSON document becomes the
// usual dynamic shapes: map[string]interface{} for objects,
// []interface{} for arrays, float64, string, bool and nil for scalars.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mem-analysis/pkg/compression"
	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/utils"
)

// Document is one decoded input.
type Document struct {
	// Root is the decoded tree, ready to be measured.
	Root interface{}

	// Source names where the bytes came from: a path, or "-" for
	// standard input.
	Source string

	// RawBytes is the size of the input as read, before decompression.
	RawBytes int64

	// InputBytes is the size of the JSON text after decompression.
	// Equal to RawBytes for uncompressed inputs.
	InputBytes int64

	// Compression is the codec the input was packed with, TypeNone for
	// plain text.
	Compression compression.Type
}

// ExpansionRatio relates the measured in-memory footprint to the JSON
// text size. Decoded documents are typically several times larger than
// their text form.
func (d *Document) ExpansionRatio(measuredBytes uint64) float64 {
	if d.InputBytes <= 0 {
		return 0
	}
	return float64(measuredBytes) / float64(d.InputBytes)
}

// Loader reads and decodes documents, enforcing the configured input
// size limit at every stage.
type Loader struct {
	maxBytes int64
	log      utils.Logger
}

// New creates a loader. maxBytes caps both the raw input and its
// decompressed form; 0 means unlimited.
func New(maxBytes int64, log utils.Logger) *Loader {
	if log == nil {
		log = utils.NullLogger{}
	}
	return &Loader{maxBytes: maxBytes, log: log}
}

// LoadFile reads and decodes the document at path. Inputs compressed
// with gzip or zstd are unpacked transparently, whatever their
// extension says.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "input not readable", err)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return nil, apperrors.Newf(apperrors.CodeInvalidInput,
			"input %s is %d bytes, limit is %d", path, info.Size(), l.maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "input not readable", err)
	}
	defer f.Close()

	return l.Load(ctx, path, f)
}

// Load reads all of r and decodes it. source is recorded on the
// document and used in errors.
func (l *Loader) Load(ctx context.Context, source string, r io.Reader) (*Document, error) {
	raw, err := l.readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	ctype := compression.DetectType(raw)
	text, err := compression.AutoDecompress(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "decompress "+source, err)
	}
	if l.maxBytes > 0 && int64(len(text)) > l.maxBytes {
		return nil, apperrors.Newf(apperrors.CodeInvalidInput,
			"input %s expands to %d bytes, limit is %d", source, len(text), l.maxBytes)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var root interface{}
	if err := json.Unmarshal(text, &root); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "decode "+source, err)
	}

	doc := &Document{
		Root:        root,
		Source:      source,
		RawBytes:    int64(len(raw)),
		InputBytes:  int64(len(text)),
		Compression: ctype,
	}
	l.log.Debug("loaded %s: %d raw bytes, %d decoded, codec %s",
		source, doc.RawBytes, doc.InputBytes, ctype)
	return doc, nil
}

// readLimited reads everything, failing once the limit is crossed
// rather than after buffering an arbitrarily large input.
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, apperrors.Newf(apperrors.CodeInvalidInput,
			"input exceeds the %d byte limit", l.maxBytes)
	}
	return data, nil
}
