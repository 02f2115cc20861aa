// Package service runs measurements end to end: decode the input, walk
// the object graph, build the report, then persist and upload it.
package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/mem-analysis/internal/loader"
	"github.com/mem-analysis/internal/repository"
	"github.com/mem-analysis/internal/storage"
	"github.com/mem-analysis/pkg/collections"
	"github.com/mem-analysis/pkg/config"
	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/filter"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/utils"
)

var tracer = otel.Tracer("github.com/mem-analysis/internal/service")

// historySize bounds the recent-run ring.
const historySize = 32

// Service owns the measurement pipeline and its backing stores.
// Database and storage connections open lazily, so runs that neither
// persist nor upload never touch them.
type Service struct {
	config *config.Config
	logger utils.Logger
	clock  utils.Clock

	docs  *loader.Loader
	types *filter.TypeFilter

	initMu  sync.Mutex
	db      *repository.Repositories
	store   storage.Storage
	reports *storage.ReportStore

	histMu  sync.Mutex
	history *collections.RingBuffer[RunSummary]
}

// RunSummary is one line of recent-run history.
type RunSummary struct {
	UUID        string            `json:"uuid"`
	Source      string            `json:"source"`
	Mode        model.MeasureMode `json:"mode"`
	TotalBytes  uint64            `json:"total_bytes"`
	ObjectCount int64             `json:"object_count"`
	Duration    time.Duration     `json:"duration"`
	When        time.Time         `json:"when"`
}

// New creates a service on the given configuration.
func New(cfg *config.Config, logger utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config:  cfg,
		logger:  logger,
		clock:   utils.NewRealClock(),
		docs:    loader.New(cfg.Measure.MaxInputBytes, logger),
		types:   filter.NewTypeFilter(),
		history: collections.NewRingBuffer[RunSummary](historySize),
	}
}

// Initialize opens the database and storage backends eagerly and
// verifies the database answers. Browse commands call this; measure
// runs open what they need on demand.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.ensureDatabase(); err != nil {
		return err
	}
	if err := s.ensureStorage(); err != nil {
		return err
	}
	return s.HealthCheck(ctx)
}

// Repository returns the report store, connecting if needed.
func (s *Service) Repository() (repository.ReportRepository, error) {
	if err := s.ensureDatabase(); err != nil {
		return nil, err
	}
	return s.db.Reports, nil
}

// ReportStore returns the object-storage report codec, connecting if
// needed.
func (s *Service) ReportStore() (*storage.ReportStore, error) {
	if err := s.ensureStorage(); err != nil {
		return nil, err
	}
	return s.reports, nil
}

// History returns the most recent runs, oldest first.
func (s *Service) History() []RunSummary {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.history.Snapshot()
}

// Stop closes open connections.
func (s *Service) Stop() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.reports != nil {
		s.reports.Close()
		s.reports = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("close database: %v", err)
			return err
		}
		s.db = nil
	}
	return nil
}

// HealthCheck pings whichever backing stores are open.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "database health check", err)
		}
	}
	return nil
}

func (s *Service) ensureDatabase() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.db != nil {
		return nil
	}

	s.logger.Info("connecting to database (%s)", s.config.Database.Type)
	gormDB, err := repository.NewGormDB(&s.config.Database)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "open database", err)
	}

	s.db = repository.NewRepositories(gormDB, s.clock)
	return nil
}

func (s *Service) ensureStorage() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.reports != nil {
		return nil
	}

	s.logger.Info("initializing storage (%s)", s.config.Storage.Type)
	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}
	reports, err := storage.NewReportStore(store, s.config.StorageCompression())
	if err != nil {
		return err
	}

	s.store = store
	s.reports = reports
	return nil
}

func (s *Service) recordRun(report *model.Report) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history.PushEvict(RunSummary{
		UUID:        report.UUID,
		Source:      report.Source,
		Mode:        report.Mode,
		TotalBytes:  report.TotalBytes,
		ObjectCount: report.ObjectCount,
		Duration:    time.Duration(report.DurationMS) * time.Millisecond,
		When:        report.CreatedAt,
	})
}
