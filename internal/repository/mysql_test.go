package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
)

var reportColumns = []string{
	"id", "uuid", "source", "source_kind", "mode", "created_at",
	"duration_ms", "total_bytes", "exclusive_bytes", "object_count",
	"level_count", "type_stats", "top_nodes", "runtime", "storage_key",
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

func TestGormRepositoryMySQL_Save(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewGormReportRepository(gdb, nil)
	ctx := context.Background()

	t.Run("Save_InsertBackfillsID", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `measurement_reports`").
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectCommit()

		report := sampleReport("mocked.json")
		require.NoError(t, repo.Save(ctx, report))
		assert.Equal(t, int64(7), report.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Save_DriverError", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `measurement_reports`").
			WillReturnError(errors.New("connection refused"))
		mock.ExpectRollback()

		err := repo.Save(ctx, sampleReport("failing.json"))
		require.Error(t, err)
		assert.True(t, apperrors.IsDatabaseError(err))
		assert.Contains(t, err.Error(), "save report")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRepositoryMySQL_GetByUUID(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewGormReportRepository(gdb, nil)
	ctx := context.Background()

	t.Run("GetByUUID_DecodesRow", func(t *testing.T) {
		created := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
		rows := sqlmock.NewRows(reportColumns).AddRow(
			3, "u-3", "heap.json", int(model.SourceFile), int(model.ModeExclusive),
			created, 120, uint64(2048), uint64(1024), 33, 4,
			[]byte(`{"string":{"count":5,"bytes":320}}`),
			[]byte(`[{"id":1,"type":"string","kind":"string","size":64,"retained":64,"level":1}]`),
			nil, "reports/u-3.json.gz",
		)
		mock.ExpectQuery("SELECT \\* FROM `measurement_reports` WHERE uuid").
			WillReturnRows(rows)

		report, err := repo.GetByUUID(ctx, "u-3")
		require.NoError(t, err)
		assert.Equal(t, int64(3), report.ID)
		assert.Equal(t, model.ModeExclusive, report.Mode)
		assert.Equal(t, uint64(2048), report.TotalBytes)
		require.Contains(t, report.TypeStats, "string")
		assert.Equal(t, int64(5), report.TypeStats["string"].Count)
		require.Len(t, report.TopNodes, 1)
		assert.Equal(t, "string", report.TopNodes[0].TypeName)
		assert.Nil(t, report.Runtime)
		assert.Equal(t, "reports/u-3.json.gz", report.StorageKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByUUID_QueryError", func(t *testing.T) {
		mock.ExpectQuery("SELECT \\* FROM `measurement_reports` WHERE uuid").
			WillReturnError(errors.New("server gone away"))

		_, err := repo.GetByUUID(ctx, "u-err")
		require.Error(t, err)
		assert.True(t, apperrors.IsDatabaseError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRepositoryMySQL_List(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewGormReportRepository(gdb, nil)
	ctx := context.Background()

	t.Run("List_OrdersByCreatedAt", func(t *testing.T) {
		rows := sqlmock.NewRows(reportColumns).
			AddRow(2, "u-2", "b.json", 0, 0, time.Now(), 5, uint64(200), uint64(0), 2, 1, nil, nil, nil, "").
			AddRow(1, "u-1", "a.json", 0, 0, time.Now().Add(-time.Hour), 5, uint64(100), uint64(0), 1, 1, nil, nil, nil, "")
		mock.ExpectQuery("SELECT \\* FROM `measurement_reports` ORDER BY created_at DESC").
			WillReturnRows(rows)

		reports, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, "u-2", reports[0].UUID)
		assert.Equal(t, "u-1", reports[1].UUID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRepositoryMySQL_Delete(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewGormReportRepository(gdb, nil)
	ctx := context.Background()

	t.Run("Delete_Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `measurement_reports` WHERE uuid").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Delete(ctx, "u-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete_NoRowsIsNotFound", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `measurement_reports` WHERE uuid").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.Delete(ctx, "u-missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRepositoryMySQL_Prune(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewGormReportRepository(gdb, nil)
	ctx := context.Background()

	t.Run("Prune_ReportsDeletedCount", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `measurement_reports` WHERE created_at <").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		removed, err := repo.Prune(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
