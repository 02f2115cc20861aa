package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-analysis/pkg/compression"
	apperrors "github.com/mem-analysis/pkg/errors"
)

const sampleJSON = `{
	"service": "orders",
	"replicas": 3,
	"active": true,
	"endpoints": ["a.internal", "b.internal"],
	"limits": {"cpu": 0.5, "memory": 512}
}`

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadFile_PlainJSON(t *testing.T) {
	path := writeInput(t, "doc.json", []byte(sampleJSON))

	doc, err := New(0, nil).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Source)
	assert.Equal(t, int64(len(sampleJSON)), doc.RawBytes)
	assert.Equal(t, doc.RawBytes, doc.InputBytes)
	assert.Equal(t, compression.TypeNone, doc.Compression)

	root, ok := doc.Root.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "orders", root["service"])
	assert.Equal(t, float64(3), root["replicas"])

	endpoints, ok := root["endpoints"].([]interface{})
	require.True(t, ok)
	assert.Len(t, endpoints, 2)
}

func TestLoadFile_Gzipped(t *testing.T) {
	packed, err := compression.NewGzipCompressor(compression.LevelDefault).Compress([]byte(sampleJSON))
	require.NoError(t, err)
	path := writeInput(t, "doc.json.gz", packed)

	doc, err := New(0, nil).LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, compression.TypeGzip, doc.Compression)
	assert.Equal(t, int64(len(packed)), doc.RawBytes)
	assert.Equal(t, int64(len(sampleJSON)), doc.InputBytes)
	assert.IsType(t, map[string]interface{}{}, doc.Root)
}

func TestLoadFile_Zstd(t *testing.T) {
	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	require.NoError(t, err)
	defer zc.Close()

	packed, err := zc.Compress([]byte(sampleJSON))
	require.NoError(t, err)

	// Wrong extension on purpose: detection goes by magic bytes.
	path := writeInput(t, "doc.json", packed)

	doc, err := New(0, nil).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, compression.TypeZstd, doc.Compression)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := New(0, nil).LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestLoadFile_OversizedOnDisk(t *testing.T) {
	path := writeInput(t, "big.json", []byte(sampleJSON))

	_, err := New(10, nil).LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "limit")
}

func TestLoad_OversizedAfterDecompression(t *testing.T) {
	// Small on the wire, large decoded.
	loose := `{"filler": "` + strings.Repeat("x", 4096) + `"}`
	packed, err := compression.NewGzipCompressor(compression.LevelBest).Compress([]byte(loose))
	require.NoError(t, err)
	require.Less(t, len(packed), 1024)

	_, err = New(1024, nil).Load(context.Background(), "wire", strings.NewReader(string(packed)))
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "expands")
}

func TestLoad_StreamOverLimit(t *testing.T) {
	_, err := New(4, nil).Load(context.Background(), "-", strings.NewReader(sampleJSON))
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := New(0, nil).Load(context.Background(), "-", strings.NewReader("{broken"))
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestLoad_ScalarDocument(t *testing.T) {
	doc, err := New(0, nil).Load(context.Background(), "-", strings.NewReader(`42`))
	require.NoError(t, err)
	assert.Equal(t, float64(42), doc.Root)
}

func TestLoad_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0, nil).Load(ctx, "-", strings.NewReader(sampleJSON))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpansionRatio(t *testing.T) {
	doc := &Document{InputBytes: 100}
	assert.InDelta(t, 3.5, doc.ExpansionRatio(350), 0.001)

	empty := &Document{}
	assert.Zero(t, empty.ExpansionRatio(350))
}
