// Package repository persists measurement reports behind a small
// interface so the service and CLI never see the database directly.
package repository

import (
	"context"
	"time"

	"github.com/mem-analysis/pkg/model"
)

// ReportRepository stores and retrieves measurement reports.
type ReportRepository interface {
	// Save persists a report and backfills its database ID.
	Save(ctx context.Context, report *model.Report) error

	// GetByUUID retrieves one report with all its JSON payloads.
	// Returns a not-found coded error when the UUID is unknown.
	GetByUUID(ctx context.Context, uuid string) (*model.Report, error)

	// List returns reports newest first. limit <= 0 means a default
	// page of 50.
	List(ctx context.Context, limit, offset int) ([]*model.Report, error)

	// Delete removes one report by UUID. Deleting an unknown UUID is a
	// not-found coded error.
	Delete(ctx context.Context, uuid string) error

	// Prune deletes reports older than the retention window and
	// reports how many went away.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
