// Package testutil builds document fixtures for measurement tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mem-analysis/pkg/compression"
	"github.com/mem-analysis/pkg/model"
)

// WriteDoc marshals v as JSON and writes it to dir/name, returning the
// full path.
func WriteDoc(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteDocPacked writes v as compressed JSON. The codec's extension is
// appended to name.
func WriteDocPacked(t *testing.T, dir, name string, v interface{}, ctype compression.Type) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode fixture %s: %v", name, err)
	}
	codec, err := compression.New(ctype, compression.LevelDefault)
	if err != nil {
		t.Fatalf("build %s codec: %v", ctype, err)
	}
	defer compression.Close(codec)

	packed, err := codec.Compress(data)
	if err != nil {
		t.Fatalf("pack fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, name+compression.Ext(ctype))
	if err := os.WriteFile(path, packed, 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// SampleDocument builds a deterministic nested document, width keys
// per level and depth levels deep. Handy when a test needs a graph of
// a known shape rather than specific content.
func SampleDocument(depth, width int) map[string]interface{} {
	doc := make(map[string]interface{}, width)
	for i := 0; i < width; i++ {
		key := fmt.Sprintf("field_%d", i)
		if depth > 1 {
			doc[key] = SampleDocument(depth-1, width)
			continue
		}
		doc[key] = fmt.Sprintf("value_%d", i)
	}
	return doc
}

// ReadReport loads a report artifact from disk, unpacking it first if
// it was written compressed.
func ReadReport(t *testing.T, path string) *model.Report {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report %s: %v", path, err)
	}
	data, err := compression.AutoDecompress(raw)
	if err != nil {
		t.Fatalf("unpack report %s: %v", path, err)
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report %s: %v", path, err)
	}
	return &report
}
