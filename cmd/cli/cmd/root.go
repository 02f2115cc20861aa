package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mem-analysis/internal/service"
	"github.com/mem-analysis/pkg/config"
	"github.com/mem-analysis/pkg/pprof"
	"github.com/mem-analysis/pkg/telemetry"
	"github.com/mem-analysis/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configFile string

	logger utils.Logger
	cfg    *config.Config
	svc    *service.Service

	telemetryShutdown telemetry.ShutdownFunc

	// Pprof flags
	pprofEnabled     bool
	pprofDir         string
	pprofProfiles    string
	pprofInterval    string
	pprofCPUDuration string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mem-analysis",
	Short: "A live-object memory measurement tool",
	Long: `mem-analysis measures the deep in-memory size of Go object graphs.

It decodes JSON documents into live object trees, walks everything
reachable through reflection, and reports totals, per-type aggregates
and the heaviest blocks by retained size. Reports can be persisted in
a database and uploaded to object storage for later browsing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		// Setup logger: --verbose wins over the configured level
		logLevel := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			logLevel = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			fileLogger, err := utils.NewFileLogger(logLevel, cfg.Log.OutputPath)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logger = fileLogger
		} else {
			logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		}

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		telemetryShutdown = shutdown

		if pprofEnabled {
			opts, err := buildPprofOptions()
			if err != nil {
				return err
			}
			if err := pprof.StartGlobal(opts); err != nil {
				return err
			}
			logger.Info("pprof collection started (dir: %s)", opts.OutputDir)
		}

		svc = service.New(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofEnabled {
			if err := pprof.StopGlobal(); err != nil {
				logger.Warn("stop pprof collection: %v", err)
			}
		}
		if svc != nil {
			if err := svc.Stop(); err != nil {
				logger.Warn("stop service: %v", err)
			}
		}
		if telemetryShutdown != nil {
			return telemetryShutdown(cmd.Context())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default searches ., ./configs, /etc/mem-analysis)")

	// Pprof flags
	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "Profile this process while it runs")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "Output directory for pprof data")
	rootCmd.PersistentFlags().StringVar(&pprofProfiles, "pprof-profiles", "cpu,heap,goroutine", "Comma-separated profile types: cpu,heap,goroutine,block,mutex,allocs")
	rootCmd.PersistentFlags().StringVar(&pprofInterval, "pprof-interval", "30s", "Snapshot interval")
	rootCmd.PersistentFlags().StringVar(&pprofCPUDuration, "pprof-cpu-duration", "10s", "CPU profile duration per snapshot")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Measure a JSON document
  ` + binName + ` measure -i ./payload.json

  # Exclusive totals, persisted and uploaded
  ` + binName + ` measure -i ./payload.json --exclusive --save --upload

  # Browse persisted reports
  ` + binName + ` report list --limit 10

  # Profile the measurement itself
  ` + binName + ` measure -i ./payload.json --pprof --pprof-profiles cpu,heap`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// buildPprofOptions builds profiling options from command line flags.
func buildPprofOptions() (pprof.Options, error) {
	opts := pprof.DefaultOptions()
	opts.OutputDir = pprofDir
	opts.Logger = logger

	profiles, err := pprof.ParseProfileTypes(pprofProfiles)
	if err != nil {
		return pprof.Options{}, err
	}
	opts.Profiles = profiles

	interval, err := time.ParseDuration(pprofInterval)
	if err != nil {
		return pprof.Options{}, fmt.Errorf("invalid pprof interval: %w", err)
	}
	opts.Interval = interval

	cpuDuration, err := time.ParseDuration(pprofCPUDuration)
	if err != nil {
		return pprof.Options{}, fmt.Errorf("invalid pprof CPU duration: %w", err)
	}
	opts.CPUDuration = cpuDuration

	if err := opts.Validate(); err != nil {
		return pprof.Options{}, err
	}
	return opts, nil
}
