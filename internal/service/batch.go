package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/parallel"
)

// BatchItem is one input's outcome in a batch run.
type BatchItem struct {
	Path     string        `json:"path"`
	Report   *model.Report `json:"report,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Items      []BatchItem   `json:"items"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	TotalBytes uint64        `json:"total_bytes"`
	Duration   time.Duration `json:"duration"`
}

// MeasureBatch measures each file through a worker pool. Individual
// failures do not stop the batch; they come back on their items.
func (s *Service) MeasureBatch(ctx context.Context, paths []string, opts MeasureOptions) (summary *BatchSummary, err error) {
	if len(paths) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "no inputs to measure")
	}

	ctx, span := tracer.Start(ctx, "measure.batch", trace.WithAttributes(
		attribute.Int("batch.inputs", len(paths)),
	))
	defer func() { endSpan(span, err) }()

	// Open what the runs will need up front so a bad configuration
	// fails before any work is done.
	if opts.Save {
		if err := s.ensureDatabase(); err != nil {
			return nil, err
		}
	}
	if opts.Upload {
		if err := s.ensureStorage(); err != nil {
			return nil, err
		}
	}

	cfg := parallel.DefaultPoolConfig().WithMetrics()
	if opts.Workers > 0 {
		cfg = cfg.WithWorkers(opts.Workers)
	}

	started := s.clock.Now()
	pool := parallel.NewWorkerPool[string, *Result](cfg)
	results := pool.ExecuteFunc(ctx, paths, func(ctx context.Context, path string) (*Result, error) {
		return s.MeasureFile(ctx, path, opts)
	})

	summary = &BatchSummary{Items: make([]BatchItem, 0, len(results))}
	for _, r := range results {
		item := BatchItem{Path: r.Input, Err: r.Error, Duration: r.Duration}
		if r.Error != nil {
			summary.Failed++
			s.logger.Warn("measure %s failed: %v", r.Input, r.Error)
		} else {
			item.Report = r.Result.Report
			summary.Succeeded++
			summary.TotalBytes += r.Result.Report.TotalBytes
		}
		summary.Items = append(summary.Items, item)
	}
	summary.Duration = s.clock.Since(started)

	s.logger.Info("batch done: %d ok, %d failed, %s measured in %s",
		summary.Succeeded, summary.Failed,
		model.FormatBytes(summary.TotalBytes), model.FormatDuration(summary.Duration))

	return summary, nil
}
