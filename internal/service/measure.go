package service

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mem-analysis/internal/loader"
	"github.com/mem-analysis/internal/snapshot"
	apperrors "github.com/mem-analysis/pkg/errors"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/objsize"
	"github.com/mem-analysis/pkg/profiling"
	"github.com/mem-analysis/pkg/utils"
)

// MeasureOptions tune one run. The zero value measures with the engine
// defaults and keeps the result in memory only.
type MeasureOptions struct {
	// Settings supplies the traversal strategies. The zero value uses
	// the measurement defaults.
	Settings objsize.Settings

	// Exclude removes the subgraphs reachable from these objects.
	Exclude []interface{}

	// Exclusive also computes the bytes private to the roots, that is
	// minus everything registered global anchors reach.
	Exclusive bool

	// CountFunctions admits function blocks instead of skipping them.
	CountFunctions bool

	// TopN is how many nodes to rank by retained size. 0 takes the
	// configured default.
	TopN int

	// MaxNodes caps the snapshot. 0 means unlimited.
	MaxNodes int

	// Workers sets aggregation parallelism. 0 takes the configured
	// default.
	Workers int

	// Save persists the report in the repository.
	Save bool

	// Upload pushes the packed report JSON to object storage.
	Upload bool
}

// Result is one finished measurement.
type Result struct {
	Report   *model.Report
	Snapshot *snapshot.Snapshot
	Document *loader.Document // nil unless the run decoded an input
	Timer    *utils.Timer
	URL      string // object URL when uploaded
}

// MeasureFile decodes a JSON document from disk and measures its
// in-memory footprint.
func (s *Service) MeasureFile(ctx context.Context, path string, opts MeasureOptions) (result *Result, err error) {
	ctx, span := tracer.Start(ctx, "measure", trace.WithAttributes(
		attribute.String("measure.source", path),
	))
	defer func() { endSpan(span, err) }()

	timer := utils.NewTimer("measure", utils.WithClock(s.clock))

	var doc *loader.Document
	if err := s.step(ctx, timer, "load", func(ctx context.Context) error {
		var lerr error
		doc, lerr = s.docs.LoadFile(ctx, path)
		return lerr
	}); err != nil {
		return nil, err
	}

	result, err = s.run(ctx, timer, doc.Source, model.SourceFile, []interface{}{doc.Root}, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	s.logExpansion(doc, result.Report)
	return result, nil
}

// MeasureReader decodes a JSON document from r and measures it. The
// source name labels the stream in reports, e.g. "stdin".
func (s *Service) MeasureReader(ctx context.Context, source string, r io.Reader, opts MeasureOptions) (result *Result, err error) {
	ctx, span := tracer.Start(ctx, "measure", trace.WithAttributes(
		attribute.String("measure.source", source),
	))
	defer func() { endSpan(span, err) }()

	timer := utils.NewTimer("measure", utils.WithClock(s.clock))

	var doc *loader.Document
	if err := s.step(ctx, timer, "load", func(ctx context.Context) error {
		var lerr error
		doc, lerr = s.docs.Load(ctx, source, r)
		return lerr
	}); err != nil {
		return nil, err
	}

	result, err = s.run(ctx, timer, doc.Source, model.SourceStdin, []interface{}{doc.Root}, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	s.logExpansion(doc, result.Report)
	return result, nil
}

// MeasureValues measures live in-process values. The source name
// labels the roots in reports.
func (s *Service) MeasureValues(ctx context.Context, source string, opts MeasureOptions, roots ...interface{}) (result *Result, err error) {
	ctx, span := tracer.Start(ctx, "measure", trace.WithAttributes(
		attribute.String("measure.source", source),
	))
	defer func() { endSpan(span, err) }()

	if len(roots) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "no roots to measure")
	}

	timer := utils.NewTimer("measure", utils.WithClock(s.clock))
	return s.run(ctx, timer, source, model.SourceLive, roots, opts)
}

// run drives the pipeline once the roots are in hand: snapshot,
// exclusive total, aggregates, then persist and upload as requested.
func (s *Service) run(ctx context.Context, timer *utils.Timer, source string, kind model.SourceKind, roots []interface{}, opts MeasureOptions) (*Result, error) {
	mode := model.ModeDeep
	if opts.Exclusive {
		mode = model.ModeExclusive
	}
	report := model.NewReport(source, kind, mode)
	report.CreatedAt = s.clock.Now()

	settings := opts.Settings
	if opts.CountFunctions || s.config.Measure.CountFunctions {
		settings = settings.WithFilter(objsize.CountFunctions)
	}

	var snap *snapshot.Snapshot
	if err := s.step(ctx, timer, "snapshot", func(ctx context.Context) error {
		var serr error
		snap, serr = snapshot.CaptureWith(ctx, snapshot.Options{
			Settings: settings,
			Exclude:  opts.Exclude,
			MaxNodes: opts.MaxNodes,
			Logger:   s.logger,
		}, roots...)
		if serr != nil {
			return apperrors.Wrap(apperrors.CodeMeasureError, "capture snapshot", serr)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	report.TotalBytes = snap.TotalBytes
	report.ObjectCount = int64(snap.ObjectCount())
	report.LevelCount = snap.LevelCount

	if opts.Exclusive {
		if err := s.step(ctx, timer, "exclusive", func(context.Context) error {
			exclusive := settings.WithLogger(s.logger)
			if len(opts.Exclude) > 0 {
				exclusive = exclusive.WithExclude(opts.Exclude...)
			}
			report.ExclusiveBytes = exclusive.ExclusiveDeepSize(roots...)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := s.step(ctx, timer, "aggregate", func(ctx context.Context) error {
		report.TypeStats = snap.TypeStats(ctx, s.workers(opts))
		report.TopNodes = snap.TopNodes(s.topN(opts), s.types)
		return nil
	}); err != nil {
		return nil, err
	}

	report.Runtime = profiling.CaptureRuntimeStats()
	report.DurationMS = timer.Total().Milliseconds()

	// The object key is derived from the UUID, so the persisted row
	// can carry it before the upload happens.
	if opts.Upload {
		if err := s.ensureStorage(); err != nil {
			return nil, err
		}
		report.StorageKey = s.reports.Key(report.UUID)
	}

	if opts.Save {
		if err := s.step(ctx, timer, "persist", func(ctx context.Context) error {
			if err := s.ensureDatabase(); err != nil {
				return err
			}
			return s.db.Reports.Save(ctx, report)
		}); err != nil {
			return nil, err
		}
	}

	var url string
	if opts.Upload {
		if err := s.step(ctx, timer, "upload", func(ctx context.Context) error {
			key, uerr := s.reports.Put(ctx, report)
			if uerr != nil {
				return uerr
			}
			url = s.reports.URL(key)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	s.recordRun(report)
	s.logger.Info("measured %s: %s across %d objects (%d levels) in %s",
		source, model.FormatBytes(report.TotalBytes), report.ObjectCount,
		report.LevelCount, model.FormatDuration(timer.Total()))
	timer.LogSummary(s.logger)

	return &Result{Report: report, Snapshot: snap, Timer: timer, URL: url}, nil
}

// step runs one pipeline stage inside its own span and timer phase.
func (s *Service) step(ctx context.Context, timer *utils.Timer, name string, fn func(context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, "measure."+name)
	defer func() { endSpan(span, err) }()

	phase := timer.Start(name)
	defer phase.Stop()

	return fn(ctx)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logExpansion(doc *loader.Document, report *model.Report) {
	ratio := doc.ExpansionRatio(report.TotalBytes)
	if ratio <= 0 {
		return
	}
	s.logger.Info("document %s: %s of JSON expands to %s in memory (%.1fx)",
		doc.Source, model.FormatBytes(uint64(doc.InputBytes)),
		model.FormatBytes(report.TotalBytes), ratio)
}

func (s *Service) topN(opts MeasureOptions) int {
	if opts.TopN > 0 {
		return opts.TopN
	}
	if s.config.Measure.TopNodes > 0 {
		return s.config.Measure.TopNodes
	}
	return 10
}

func (s *Service) workers(opts MeasureOptions) int {
	if opts.Workers > 0 {
		return opts.Workers
	}
	return s.config.Measure.Workers
}
