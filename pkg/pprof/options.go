package pprof

import (
	"errors"
	"fmt"
	"time"

	"github.com/mem-analysis/pkg/utils"
)

// Options configures a profiling session.
type Options struct {
	// OutputDir is where profile files land, one subdirectory per type.
	OutputDir string

	// Profiles selects which profiles to collect.
	Profiles []ProfileType

	// Interval is the time between periodic snapshots.
	Interval time.Duration

	// CPUDuration is how long each CPU sample runs. Must stay under
	// Interval so samples cannot pile up.
	CPUDuration time.Duration

	// MaxFiles caps how many files are kept per profile type. Oldest
	// files are pruned first.
	MaxFiles int

	// Logger receives collection warnings.
	Logger utils.Logger
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		OutputDir:   "./pprof",
		Profiles:    DefaultProfileTypes(),
		Interval:    30 * time.Second,
		CPUDuration: 10 * time.Second,
		MaxFiles:    10,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.OutputDir == "" {
		o.OutputDir = def.OutputDir
	}
	if len(o.Profiles) == 0 {
		o.Profiles = def.Profiles
	}
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	if o.CPUDuration <= 0 {
		o.CPUDuration = def.CPUDuration
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = def.MaxFiles
	}
	if o.Logger == nil {
		o.Logger = utils.Default()
	}
	return o
}

// Validate checks the options for contradictions.
func (o Options) Validate() error {
	if o.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if len(o.Profiles) == 0 {
		return errors.New("at least one profile type must be selected")
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}
	hasCPU := false
	for _, pt := range o.Profiles {
		if !valid[pt] {
			return fmt.Errorf("unknown profile type: %q", pt)
		}
		if pt == ProfileCPU {
			hasCPU = true
		}
	}

	if o.Interval < time.Second {
		return errors.New("interval must be at least 1 second")
	}
	if hasCPU && o.CPUDuration >= o.Interval {
		return errors.New("CPU duration must be less than the interval")
	}

	return nil
}

func (o Options) hasProfile(pt ProfileType) bool {
	for _, p := range o.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
