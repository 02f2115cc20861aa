package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-analysis/internal/mock"
	"github.com/mem-analysis/pkg/compression"
	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
)

func testReport() *model.Report {
	report := model.NewReport("orders.json", model.SourceFile, model.ModeDeep)
	report.TotalBytes = 1 << 16
	report.ObjectCount = 321
	report.LevelCount = 5
	report.TypeStats = map[string]*model.TypeStat{
		"map[string]interface {}": {Count: 12, Bytes: 9000},
	}
	return report
}

func TestReportStore_PutGet(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	reports, err := NewReportStore(store, compression.TypeGzip)
	require.NoError(t, err)
	defer reports.Close()

	t.Run("PutUsesCodecExtension", func(t *testing.T) {
		report := testReport()
		key, err := reports.Put(ctx, report)
		require.NoError(t, err)
		assert.Equal(t, "reports/"+report.UUID+".json.gz", key)

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("StoredBytesAreGzipped", func(t *testing.T) {
		report := testReport()
		key, err := reports.Put(ctx, report)
		require.NoError(t, err)

		rc, err := store.Download(ctx, key)
		require.NoError(t, err)
		defer rc.Close()

		packed, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, compression.TypeGzip, compression.DetectType(packed))
	})

	t.Run("GetRoundTrips", func(t *testing.T) {
		want := testReport()
		key, err := reports.Put(ctx, want)
		require.NoError(t, err)

		got, err := reports.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want.UUID, got.UUID)
		assert.Equal(t, want.TotalBytes, got.TotalBytes)
		assert.Equal(t, want.TypeStats, got.TypeStats)
	})

	t.Run("GetDetectsCodecFromBytes", func(t *testing.T) {
		want := testReport()
		key, err := reports.Put(ctx, want)
		require.NoError(t, err)

		plain, err := NewReportStore(store, compression.TypeNone)
		require.NoError(t, err)

		got, err := plain.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want.UUID, got.UUID)
	})

	t.Run("GetMissingKey", func(t *testing.T) {
		_, err := reports.Get(ctx, "reports/none.json.gz")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestReportStore_DeleteAndURL(t *testing.T) {
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	reports, err := NewReportStore(local, compression.TypeNone)
	require.NoError(t, err)

	report := testReport()
	key, err := reports.Put(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, "reports/"+report.UUID+".json", key)
	assert.Equal(t, local.GetURL(key), reports.URL(key))

	require.NoError(t, reports.Delete(ctx, key))

	exists, err := local.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReportStore_BackendErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("PutSurfacesUploadError", func(t *testing.T) {
		backend := new(mock.MockStorage)
		backend.ExpectAnyUpload(apperrors.New(apperrors.CodeStorageError, "bucket unreachable"))

		reports, err := NewReportStore(backend, compression.TypeGzip)
		require.NoError(t, err)

		_, err = reports.Put(ctx, testReport())
		require.Error(t, err)
		assert.True(t, apperrors.IsStorageError(err))
		backend.AssertExpectations(t)
	})

	t.Run("GetSurfacesDownloadError", func(t *testing.T) {
		backend := new(mock.MockStorage)
		backend.ExpectDownload("reports/x.json.gz", nil,
			apperrors.New(apperrors.CodeStorageError, "bucket unreachable"))

		reports, err := NewReportStore(backend, compression.TypeGzip)
		require.NoError(t, err)

		_, err = reports.Get(ctx, "reports/x.json.gz")
		require.Error(t, err)
		assert.True(t, apperrors.IsStorageError(err))
		backend.AssertExpectations(t)
	})

	t.Run("GetRejectsCorruptPayload", func(t *testing.T) {
		// Gzip magic followed by garbage.
		corrupt := io.NopCloser(bytes.NewReader([]byte{0x1f, 0x8b, 0xff, 0x00, 0x01}))
		backend := new(mock.MockStorage)
		backend.ExpectDownload("reports/x.json.gz", corrupt, nil)

		reports, err := NewReportStore(backend, compression.TypeGzip)
		require.NoError(t, err)

		_, err = reports.Get(ctx, "reports/x.json.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unpack report")
	})

	t.Run("GetRejectsBadJSON", func(t *testing.T) {
		codec, err := compression.New(compression.TypeGzip, compression.LevelDefault)
		require.NoError(t, err)
		packed, err := codec.Compress([]byte(`{broken`))
		require.NoError(t, err)

		backend := new(mock.MockStorage)
		backend.ExpectDownload("reports/x.json.gz", io.NopCloser(bytes.NewReader(packed)), nil)

		reports, err := NewReportStore(backend, compression.TypeGzip)
		require.NoError(t, err)

		_, err = reports.Get(ctx, "reports/x.json.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode report")
	})
}
