package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mem-analysis/internal/service"
	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/utils"
	"github.com/mem-analysis/pkg/writer"
)

var (
	// Measure command flags
	inputFile      string
	outputDir      string
	exclusive      bool
	saveReport     bool
	uploadReport   bool
	topN           int
	maxNodes       int
	countFunctions bool
	measureWorkers int
)

// measureCmd represents the measure command
var measureCmd = &cobra.Command{
	Use:   "measure [files...]",
	Short: "Measure the in-memory footprint of JSON documents",
	Long: `Measure how much memory a JSON document occupies once decoded.

The document is decoded into live Go values, everything reachable is
walked through reflection, and the run produces:
  - Deep total and object/level counts
  - Per-type aggregates (count and bytes per Go type)
  - The heaviest blocks ranked by retained size
  - Runtime heap statistics captured alongside

With --exclusive the run also reports the bytes private to the decoded
tree, discounting whatever registered global anchors reach. A report
file is always written; --save persists the report in the database and
--upload pushes the packed JSON to object storage.

Passing several files runs them through the measurement worker pool.`,
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	measureCmd.Example = `  # Measure one document
  ` + binName + ` measure -i ./payload.json

  # Measure from stdin
  cat payload.json | ` + binName + ` measure -i -

  # Exclusive totals, persisted and uploaded
  ` + binName + ` measure -i ./payload.json --exclusive --save --upload

  # Measure many documents through the worker pool
  ` + binName + ` measure ./dumps/a.json ./dumps/b.json --save --workers 4`

	measureCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input JSON document (use - for stdin)")
	measureCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for report files (defaults to the configured data dir)")
	measureCmd.Flags().BoolVar(&exclusive, "exclusive", false, "Also compute the bytes private to the decoded tree")
	measureCmd.Flags().BoolVar(&saveReport, "save", false, "Persist the report in the database")
	measureCmd.Flags().BoolVar(&uploadReport, "upload", false, "Upload the packed report to object storage")
	measureCmd.Flags().IntVarP(&topN, "top", "n", 0, "How many heavy blocks to single out (0 uses the configured default)")
	measureCmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "Cap the snapshot at this many blocks (0 is unlimited)")
	measureCmd.Flags().BoolVar(&countFunctions, "count-functions", false, "Count function values as blocks")
	measureCmd.Flags().IntVar(&measureWorkers, "workers", 0, "Worker pool size for multi-file runs (0 uses the configured default)")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := cmd.Context()

	opts := service.MeasureOptions{
		Exclusive:      exclusive,
		CountFunctions: countFunctions,
		TopN:           topN,
		MaxNodes:       maxNodes,
		Workers:        measureWorkers,
		Save:           saveReport,
		Upload:         uploadReport,
	}

	if inputFile == "-" {
		if len(args) > 0 {
			return fmt.Errorf("stdin cannot be combined with file arguments")
		}
		result, err := svc.MeasureReader(ctx, "stdin", os.Stdin, opts)
		if err != nil {
			return err
		}
		return finishMeasure(log, result)
	}

	paths := args
	if inputFile != "" {
		paths = append([]string{inputFile}, args...)
	}

	switch len(paths) {
	case 0:
		return fmt.Errorf("input file is required (use -i FILE or pass files as arguments)")
	case 1:
		result, err := svc.MeasureFile(ctx, paths[0], opts)
		if err != nil {
			return err
		}
		return finishMeasure(log, result)
	default:
		summary, err := svc.MeasureBatch(ctx, paths, opts)
		if err != nil {
			return err
		}
		printBatch(log, summary)
		return nil
	}
}

// finishMeasure writes the report artifact and prints the run.
func finishMeasure(log utils.Logger, result *service.Result) error {
	report := result.Report

	path, err := writeReportFile(report)
	if err != nil {
		return err
	}

	printReport(log, report)

	log.Info("")
	log.Info("=== Output ===")
	if result.Document != nil {
		log.Info("Input size:  %s of JSON", model.FormatBytes(uint64(result.Document.InputBytes)))
	}
	log.Info("Report file: %s", path)
	if result.URL != "" {
		log.Info("Uploaded to: %s", result.URL)
	}
	return nil
}

// writeReportFile writes the report under -o, or the configured data
// dir when -o is not given. The file name carries the configured
// compression extension, so pkg/writer picks the matching codec.
func writeReportFile(report *model.Report) (string, error) {
	path := cfg.ReportPath(report.UUID)
	if outputDir != "" {
		path = filepath.Join(outputDir, filepath.Base(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	w, err := writer.ForPath[*model.Report](path)
	if err != nil {
		return "", err
	}
	if err := w.WriteToFile(report, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func printReport(log utils.Logger, report *model.Report) {
	log.Info("=== Measurement Report ===")
	log.Info("UUID:       %s", report.UUID)
	log.Info("Source:     %s (%s)", report.Source, report.SourceKind)
	log.Info("Mode:       %s", report.Mode)
	log.Info("Total size: %s (%d bytes)", model.FormatBytes(report.TotalBytes), report.TotalBytes)
	if report.Mode == model.ModeExclusive {
		log.Info("Exclusive:  %s (%s shared with global anchors)",
			model.FormatBytes(report.ExclusiveBytes), model.FormatBytes(report.SharedBytes()))
	}
	log.Info("Objects:    %d across %d levels", report.ObjectCount, report.LevelCount)
	log.Info("Duration:   %s", model.FormatDuration(time.Duration(report.DurationMS)*time.Millisecond))

	if len(report.TopNodes) > 0 {
		log.Info("")
		log.Info("=== Heaviest Blocks ===")
		for i, node := range report.TopNodes {
			log.Info("  %2d. %-10s retained %-10s %s", i+1,
				model.FormatBytes(node.Size), model.FormatBytes(node.Retained),
				truncateString(node.TypeName, 70))
		}
	}

	if len(report.TypeStats) > 0 {
		log.Info("")
		log.Info("=== Types by Size ===")
		entries := report.TypesBySize()
		count := 10
		if len(entries) < count {
			count = len(entries)
		}
		for i := 0; i < count; i++ {
			e := entries[i]
			log.Info("  %2d. %-10s x%-8d %s", i+1,
				model.FormatBytes(e.Stat.Bytes), e.Stat.Count, truncateString(e.Name, 70))
		}
		if len(entries) > count {
			log.Info("  ... and %d more types", len(entries)-count)
		}
	}
}

func printBatch(log utils.Logger, summary *service.BatchSummary) {
	log.Info("=== Batch Summary ===")
	for _, item := range summary.Items {
		if item.Err != nil {
			log.Warn("  FAIL %s: %v", item.Path, item.Err)
			continue
		}
		log.Info("  ok   %s: %s across %d objects", item.Path,
			model.FormatBytes(item.Report.TotalBytes), item.Report.ObjectCount)
	}
	log.Info("")
	log.Info("%d ok, %d failed, %s measured in %s",
		summary.Succeeded, summary.Failed,
		model.FormatBytes(summary.TotalBytes), model.FormatDuration(summary.Duration))
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
