package pprof

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"time"
)

// ProfileType names a runtime profile.
type ProfileType string

const (
	ProfileCPU          ProfileType = "cpu"
	ProfileHeap         ProfileType = "heap"
	ProfileGoroutine    ProfileType = "goroutine"
	ProfileBlock        ProfileType = "block"
	ProfileMutex        ProfileType = "mutex"
	ProfileAllocs       ProfileType = "allocs"
	ProfileThreadCreate ProfileType = "threadcreate"
)

// AllProfileTypes returns all supported profile types.
func AllProfileTypes() []ProfileType {
	return []ProfileType{
		ProfileCPU,
		ProfileHeap,
		ProfileGoroutine,
		ProfileBlock,
		ProfileMutex,
		ProfileAllocs,
		ProfileThreadCreate,
	}
}

// DefaultProfileTypes returns the profile types collected by default.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine}
}

// ParseProfileTypes parses a comma-separated list into profile types.
// An empty string selects the defaults.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if s == "" {
		return DefaultProfileTypes(), nil
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}

	return types, nil
}

// Capture collects one snapshot of a non-CPU profile.
func Capture(pt ProfileType) ([]byte, error) {
	var buf bytes.Buffer

	switch pt {
	case ProfileCPU:
		return nil, fmt.Errorf("CPU profiles need a duration, use CaptureCPU")
	case ProfileHeap:
		// Collect first so the profile describes live data.
		runtime.GC()
		if err := pprof.WriteHeapProfile(&buf); err != nil {
			return nil, fmt.Errorf("failed to write heap profile: %w", err)
		}
	case ProfileGoroutine, ProfileBlock, ProfileMutex, ProfileAllocs, ProfileThreadCreate:
		p := pprof.Lookup(string(pt))
		if p == nil {
			return nil, fmt.Errorf("profile %q not registered", pt)
		}
		if err := p.WriteTo(&buf, 0); err != nil {
			return nil, fmt.Errorf("failed to write %s profile: %w", pt, err)
		}
	default:
		return nil, fmt.Errorf("unknown profile type: %q", pt)
	}

	return buf.Bytes(), nil
}

// The runtime supports one CPU profile at a time.
var cpuMu sync.Mutex

// CaptureCPU samples the CPU for the given duration. Returns early with
// the context error when the context is canceled mid-sample.
func CaptureCPU(ctx context.Context, duration time.Duration) ([]byte, error) {
	cpuMu.Lock()
	defer cpuMu.Unlock()

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		pprof.StopCPUProfile()
		return nil, ctx.Err()
	}

	pprof.StopCPUProfile()
	return buf.Bytes(), nil
}
