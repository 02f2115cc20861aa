package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/objsize"
)

type testNode struct {
	Name    string
	Payload []byte
	Peer    *testNode
}

func TestMeasureValues_MatchesDeepSize(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	root := &testNode{
		Name:    "root",
		Payload: make([]byte, 1024),
		Peer:    &testNode{Name: "peer", Payload: make([]byte, 256)},
	}

	result, err := svc.MeasureValues(ctx, "live-roots", MeasureOptions{}, root)
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, objsize.DeepSize(root), report.TotalBytes)
	assert.Equal(t, model.ModeDeep, report.Mode)
	assert.Equal(t, model.SourceLive, report.SourceKind)
	assert.Equal(t, "live-roots", report.Source)
	assert.NotEmpty(t, report.UUID)
	assert.Greater(t, report.ObjectCount, int64(0))
	assert.Greater(t, report.LevelCount, 1)
	assert.NotEmpty(t, report.TypeStats)
	assert.NotEmpty(t, report.TopNodes)
	require.NotNil(t, report.Runtime)
	assert.NotEmpty(t, report.Runtime.GoVersion)

	require.NotNil(t, result.Snapshot)
	assert.Equal(t, report.TotalBytes, result.Snapshot.TotalBytes)
	assert.Nil(t, result.Document)
}

func TestMeasureValues_TopNodesRankedByRetained(t *testing.T) {
	svc := testService(t)

	root := &testNode{
		Payload: make([]byte, 4096),
		Peer:    &testNode{Payload: make([]byte, 64)},
	}

	result, err := svc.MeasureValues(context.Background(), "rank", MeasureOptions{TopN: 3}, root)
	require.NoError(t, err)

	nodes := result.Report.TopNodes
	require.NotEmpty(t, nodes)
	assert.LessOrEqual(t, len(nodes), 3)
	for i := 1; i < len(nodes); i++ {
		assert.GreaterOrEqual(t, nodes[i-1].Retained, nodes[i].Retained)
	}
}

func TestMeasureValues_Exclusive(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	shared := &testNode{Name: "shared", Payload: make([]byte, 2048)}
	anchor := &testNode{Name: "anchor", Peer: shared}
	root := &testNode{Name: "root", Payload: make([]byte, 128), Peer: shared}

	objsize.GlobalRoots.Register(anchor)
	defer objsize.GlobalRoots.Unregister(anchor)

	result, err := svc.MeasureValues(ctx, "exclusive", MeasureOptions{Exclusive: true}, root)
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, model.ModeExclusive, report.Mode)
	assert.Equal(t, objsize.DeepSize(root), report.TotalBytes)
	assert.Equal(t, objsize.ExclusiveDeepSize(root), report.ExclusiveBytes)
	assert.Less(t, report.ExclusiveBytes, report.TotalBytes)
	assert.Greater(t, report.SharedBytes(), uint64(0))
}

func TestMeasureValues_CountFunctionsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Measure.CountFunctions = true
	svc := New(cfg, nil)
	t.Cleanup(func() { svc.Stop() })

	root := &struct {
		Handler func() int
		Name    string
	}{Handler: func() int { return 7 }, Name: "with-closure"}

	result, err := svc.MeasureValues(context.Background(), "funcs", MeasureOptions{}, root)
	require.NoError(t, err)

	want := objsize.NewSettings().WithFilter(objsize.CountFunctions).DeepSize(root)
	assert.Equal(t, want, result.Report.TotalBytes)
	assert.Greater(t, result.Report.TotalBytes, objsize.DeepSize(root))
}

func TestMeasureValues_ExcludeSubgraph(t *testing.T) {
	svc := testService(t)

	cold := &testNode{Payload: make([]byte, 8192)}
	root := &testNode{Payload: make([]byte, 64), Peer: cold}

	result, err := svc.MeasureValues(context.Background(), "exclude",
		MeasureOptions{Exclude: []interface{}{cold}}, root)
	require.NoError(t, err)

	want := objsize.NewSettings().WithExclude(cold).DeepSize(root)
	assert.Equal(t, want, result.Report.TotalBytes)
	assert.Less(t, result.Report.TotalBytes, objsize.DeepSize(root))
}

func TestMeasureValues_NoRoots(t *testing.T) {
	svc := testService(t)

	_, err := svc.MeasureValues(context.Background(), "empty", MeasureOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestMeasureValues_MaxNodesTruncates(t *testing.T) {
	svc := testService(t)

	items := make([]*testNode, 64)
	for i := range items {
		items[i] = &testNode{Payload: make([]byte, 16)}
	}

	result, err := svc.MeasureValues(context.Background(), "capped",
		MeasureOptions{MaxNodes: 10}, items)
	require.NoError(t, err)

	assert.True(t, result.Snapshot.Truncated)
	assert.Equal(t, int64(10), result.Report.ObjectCount)
}

func TestMeasureValues_ContextCanceled(t *testing.T) {
	svc := testService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.MeasureValues(ctx, "canceled", MeasureOptions{}, &testNode{})
	require.Error(t, err)
	assert.True(t, apperrors.IsMeasureError(err))
}

func TestMeasureFile_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	svc := New(cfg, nil)
	t.Cleanup(func() { svc.Stop() })
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "orders.json")
	doc := `{"service":"orders","endpoints":["create","cancel"],"limits":{"rps":100,"burst":250}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	result, err := svc.MeasureFile(ctx, path, MeasureOptions{Save: true, Upload: true})
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, model.SourceFile, report.SourceKind)
	assert.Greater(t, report.TotalBytes, uint64(0))
	require.NotNil(t, result.Document)
	assert.Greater(t, result.Document.ExpansionRatio(report.TotalBytes), 1.0)

	t.Run("Persisted", func(t *testing.T) {
		repo, err := svc.Repository()
		require.NoError(t, err)

		stored, err := repo.GetByUUID(ctx, report.UUID)
		require.NoError(t, err)
		assert.Equal(t, report.TotalBytes, stored.TotalBytes)
		assert.Equal(t, report.StorageKey, stored.StorageKey)
	})

	t.Run("Uploaded", func(t *testing.T) {
		assert.Equal(t, "reports/"+report.UUID+".json.gz", report.StorageKey)
		assert.NotEmpty(t, result.URL)

		packed := filepath.Join(cfg.Storage.LocalPath, "reports", report.UUID+".json.gz")
		_, err := os.Stat(packed)
		assert.NoError(t, err)

		store, err := svc.ReportStore()
		require.NoError(t, err)
		fetched, err := store.Get(ctx, report.StorageKey)
		require.NoError(t, err)
		assert.Equal(t, report.UUID, fetched.UUID)
		assert.Equal(t, report.TotalBytes, fetched.TotalBytes)
	})
}

func TestMeasureFile_MissingInput(t *testing.T) {
	svc := testService(t)

	_, err := svc.MeasureFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), MeasureOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestMeasureReader_Stdin(t *testing.T) {
	svc := testService(t)

	result, err := svc.MeasureReader(context.Background(), "stdin",
		strings.NewReader(`[1,2,3,"four"]`), MeasureOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.SourceStdin, result.Report.SourceKind)
	assert.Equal(t, "stdin", result.Report.Source)
	assert.Greater(t, result.Report.TotalBytes, uint64(0))
}

func TestMeasure_HistoryAccumulates(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	first, err := svc.MeasureValues(ctx, "one", MeasureOptions{}, &testNode{Payload: []byte("x")})
	require.NoError(t, err)
	second, err := svc.MeasureValues(ctx, "two", MeasureOptions{}, &testNode{Payload: []byte("y")})
	require.NoError(t, err)

	history := svc.History()
	require.Len(t, history, 2)
	assert.Equal(t, first.Report.UUID, history[0].UUID)
	assert.Equal(t, second.Report.UUID, history[1].UUID)
	assert.Equal(t, "one", history[0].Source)
	assert.Equal(t, first.Report.TotalBytes, history[0].TotalBytes)
}
