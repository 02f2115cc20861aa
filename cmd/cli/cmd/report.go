package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mem-analysis/pkg/model"
	"github.com/mem-analysis/pkg/writer"
)

var (
	// Report command flags
	listLimit   int
	listOffset  int
	pruneWindow time.Duration
)

// reportCmd groups the persisted-report subcommands.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Browse persisted measurement reports",
	Long: `Browse, inspect and clean up reports persisted with measure --save.

Reports live in the configured database; show prints the full report
as JSON, delete also removes the uploaded object when one exists.`,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted reports, newest first",
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show UUID",
	Short: "Print one report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete UUID",
	Short: "Delete one report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDelete,
}

var reportPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete reports older than the retention window",
	RunE:  runReportPrune,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportDeleteCmd, reportPruneCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	reportCmd.Example = `  # List the latest reports
  ` + binName + ` report list --limit 10

  # Print one report
  ` + binName + ` report show 2f9d8a31-7c44-4b3e-9a51-1f2f6c8d9e07

  # Drop everything older than 30 days
  ` + binName + ` report prune --older-than 720h`

	reportListCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum reports to list")
	reportListCmd.Flags().IntVar(&listOffset, "offset", 0, "Reports to skip")
	reportPruneCmd.Flags().DurationVar(&pruneWindow, "older-than", 30*24*time.Hour, "Retention window")
}

func runReportList(cmd *cobra.Command, args []string) error {
	repo, err := svc.Repository()
	if err != nil {
		return err
	}
	reports, err := repo.List(cmd.Context(), listLimit, listOffset)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("no reports")
		return nil
	}

	fmt.Printf("%-36s  %-9s  %-10s  %-10s  %-19s  %s\n",
		"UUID", "MODE", "SIZE", "OBJECTS", "CREATED", "SOURCE")
	for _, r := range reports {
		fmt.Printf("%-36s  %-9s  %-10s  %-10d  %-19s  %s\n",
			r.UUID, r.Mode, model.FormatBytes(r.TotalBytes), r.ObjectCount,
			r.CreatedAt.Format("2006-01-02 15:04:05"), truncateString(r.Source, 48))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	repo, err := svc.Repository()
	if err != nil {
		return err
	}
	report, err := repo.GetByUUID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writer.NewPrettyJSONWriter[*model.Report]().Write(report, os.Stdout)
}

func runReportDelete(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := cmd.Context()

	repo, err := svc.Repository()
	if err != nil {
		return err
	}
	report, err := repo.GetByUUID(ctx, args[0])
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, report.UUID); err != nil {
		return err
	}

	if report.StorageKey != "" {
		reports, serr := svc.ReportStore()
		if serr != nil {
			log.Warn("stored object %s kept: %v", report.StorageKey, serr)
		} else if derr := reports.Delete(ctx, report.StorageKey); derr != nil {
			log.Warn("delete stored object %s: %v", report.StorageKey, derr)
		}
	}

	log.Info("deleted %s", report.UUID)
	return nil
}

func runReportPrune(cmd *cobra.Command, args []string) error {
	repo, err := svc.Repository()
	if err != nil {
		return err
	}
	removed, err := repo.Prune(cmd.Context(), pruneWindow)
	if err != nil {
		return err
	}
	GetLogger().Info("pruned %d reports older than %s", removed, pruneWindow)
	return nil
}
