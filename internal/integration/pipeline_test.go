package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mem-analysis/internal/service"
	"github.com/mem-analysis/internal/testutil"
	"github.com/mem-analysis/pkg/compression"
	"github.com/mem-analysis/pkg/config"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/objsize"
	"github.com/mem-analysis/pkg/utils"
	"github.com/mem-analysis/pkg/writer"
)

func pipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Measure: config.MeasureConfig{
			Workers:       2,
			TopNodes:      5,
			MaxInputBytes: 8 << 20,
			DataDir:       t.TempDir(),
		},
		Database: config.DatabaseConfig{Type: "sqlite", Path: ":memory:"},
		Storage: config.StorageConfig{
			Type:        "local",
			LocalPath:   t.TempDir(),
			Compression: "gzip",
		},
		Log: config.LogConfig{Level: "info"},
	}
}

func pipelineService(t *testing.T) (*service.Service, *config.Config) {
	t.Helper()
	cfg := pipelineConfig(t)
	svc := service.New(cfg, utils.NullLogger{})
	t.Cleanup(func() { svc.Stop() })
	return svc, cfg
}

func TestFullMeasurementPipeline(t *testing.T) {
	svc, cfg := pipelineService(t)
	ctx := context.Background()

	// Step 1: write a document fixture and measure it end to end.
	path := testutil.WriteDoc(t, t.TempDir(), "catalog.json", testutil.SampleDocument(3, 4))
	result, err := svc.MeasureFile(ctx, path, service.MeasureOptions{Save: true, Upload: true})
	require.NoError(t, err)

	report := result.Report
	assert.Greater(t, report.TotalBytes, uint64(0))
	assert.Greater(t, report.ObjectCount, int64(0))
	assert.NotEmpty(t, report.TypeStats)
	require.NotNil(t, result.Document)

	// Step 2: the repository has the row.
	repo, err := svc.Repository()
	require.NoError(t, err)
	stored, err := repo.GetByUUID(ctx, report.UUID)
	require.NoError(t, err)
	assert.Equal(t, report.TotalBytes, stored.TotalBytes)
	assert.Equal(t, report.StorageKey, stored.StorageKey)

	// Step 3: the packed object round-trips through storage.
	reports, err := svc.ReportStore()
	require.NoError(t, err)
	fetched, err := reports.Get(ctx, report.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, report.UUID, fetched.UUID)
	assert.Equal(t, report.TypeStats, fetched.TypeStats)

	// Step 4: write the report artifact the way the CLI does and read
	// it back.
	artifact := filepath.Join(cfg.Measure.DataDir, report.UUID+".json.gz")
	w, err := writer.ForPath[*model.Report](artifact)
	require.NoError(t, err)
	require.NoError(t, w.WriteToFile(report, artifact))

	back := testutil.ReadReport(t, artifact)
	assert.Equal(t, report.UUID, back.UUID)
	assert.Equal(t, report.TotalBytes, back.TotalBytes)

	t.Logf("Report: %s across %d objects (%d levels)",
		model.FormatBytes(report.TotalBytes), report.ObjectCount, report.LevelCount)
	t.Logf("Stored: key %s, %d type buckets", report.StorageKey, len(report.TypeStats))
}

func TestMeasurementPipeline_PackedInput(t *testing.T) {
	svc, _ := pipelineService(t)
	ctx := context.Background()
	dir := t.TempDir()
	doc := testutil.SampleDocument(2, 6)

	plainPath := testutil.WriteDoc(t, dir, "plain.json", doc)
	packedPath := testutil.WriteDocPacked(t, dir, "packed.json", doc, compression.TypeGzip)

	plain, err := svc.MeasureFile(ctx, plainPath, service.MeasureOptions{})
	require.NoError(t, err)
	packed, err := svc.MeasureFile(ctx, packedPath, service.MeasureOptions{})
	require.NoError(t, err)

	// Same document, so the decoded graphs have identical shape.
	assert.Equal(t, plain.Report.TotalBytes, packed.Report.TotalBytes)
	assert.Equal(t, plain.Report.ObjectCount, packed.Report.ObjectCount)

	// The packed file is smaller on disk but the decoded text matches.
	assert.Equal(t, plain.Document.InputBytes, packed.Document.InputBytes)
	assert.Less(t, packed.Document.RawBytes, plain.Document.RawBytes)
}

func TestMeasurementPipeline_ExclusivePersisted(t *testing.T) {
	svc, _ := pipelineService(t)
	ctx := context.Background()

	type cacheLine struct {
		Payload []byte
		Next    *cacheLine
	}
	shared := &cacheLine{Payload: make([]byte, 4096)}
	anchor := &cacheLine{Next: shared}
	root := &cacheLine{Payload: make([]byte, 64), Next: shared}

	objsize.GlobalRoots.Register(anchor)
	defer objsize.GlobalRoots.Unregister(anchor)

	result, err := svc.MeasureValues(ctx, "session-cache",
		service.MeasureOptions{Exclusive: true, Save: true}, root)
	require.NoError(t, err)

	report := result.Report
	assert.Less(t, report.ExclusiveBytes, report.TotalBytes)

	repo, err := svc.Repository()
	require.NoError(t, err)
	stored, err := repo.GetByUUID(ctx, report.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.ModeExclusive, stored.Mode)
	assert.Equal(t, report.ExclusiveBytes, stored.ExclusiveBytes)
}

func TestMeasurementPipeline_Batch(t *testing.T) {
	svc, _ := pipelineService(t)
	ctx := context.Background()
	dir := t.TempDir()

	paths := []string{
		testutil.WriteDoc(t, dir, "a.json", testutil.SampleDocument(2, 3)),
		testutil.WriteDoc(t, dir, "b.json", testutil.SampleDocument(3, 2)),
		testutil.WriteDoc(t, dir, "c.json", testutil.SampleDocument(1, 8)),
	}

	summary, err := svc.MeasureBatch(ctx, paths, service.MeasureOptions{Save: true, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Zero(t, summary.Failed)

	repo, err := svc.Repository()
	require.NoError(t, err)
	stored, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	t.Logf("Batch: %d reports, %s total", summary.Succeeded, model.FormatBytes(summary.TotalBytes))
}
