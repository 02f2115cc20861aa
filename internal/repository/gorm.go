package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/utils"
)

// defaultListLimit pages List calls that pass no limit.
const defaultListLimit = 50

// GormReportRepository implements ReportRepository using GORM.
type GormReportRepository struct {
	db    *gorm.DB
	clock utils.Clock
}

// NewGormReportRepository creates a report repository. A nil clock
// means wall time.
func NewGormReportRepository(db *gorm.DB, clock utils.Clock) *GormReportRepository {
	if clock == nil {
		clock = utils.NewRealClock()
	}
	return &GormReportRepository{db: db, clock: clock}
}

// Save persists a report and backfills its database ID.
func (r *GormReportRepository) Save(ctx context.Context, report *model.Report) error {
	record, err := newMeasurementReport(report)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeEncodeError, "encode report", err)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.clock.Now()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "save report", err)
	}

	report.ID = record.ID
	return nil
}

// GetByUUID retrieves one report with all its JSON payloads.
func (r *GormReportRepository) GetByUUID(ctx context.Context, uuid string) (*model.Report, error) {
	var record MeasurementReport

	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "report not found: %s", uuid)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "get report", err)
	}

	report, err := record.ToModel()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEncodeError, "decode report", err)
	}
	return report, nil
}

// List returns reports newest first.
func (r *GormReportRepository) List(ctx context.Context, limit, offset int) ([]*model.Report, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var records []MeasurementReport
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "list reports", err)
	}

	reports := make([]*model.Report, 0, len(records))
	for i := range records {
		report, err := records[i].ToModel()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeEncodeError, "decode report", err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Delete removes one report by UUID.
func (r *GormReportRepository) Delete(ctx context.Context, uuid string) error {
	result := r.db.WithContext(ctx).Where("uuid = ?", uuid).Delete(&MeasurementReport{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "delete report", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "report not found: %s", uuid)
	}
	return nil
}

// Prune deletes reports older than the retention window.
func (r *GormReportRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, apperrors.New(apperrors.CodeInvalidInput, "retention window must be positive")
	}

	cutoff := r.clock.Now().Add(-olderThan)
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&MeasurementReport{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "prune reports", result.Error)
	}
	return result.RowsAffected, nil
}
