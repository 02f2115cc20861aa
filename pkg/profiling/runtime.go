// Package profiling provides common utilities for runtime introspection.
package profiling

import (
	"runtime"
	"strings"

	"github.com/mem-analysis/pkg/model"
)

// CaptureRuntimeStats snapshots the Go runtime counters that matter for
// a measurement report.
func CaptureRuntimeStats() *model.RuntimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &model.RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		HeapAlloc:    ms.HeapAlloc,
		HeapSys:      ms.HeapSys,
		HeapObjects:  ms.HeapObjects,
		TotalAlloc:   ms.TotalAlloc,
		NumGC:        ms.NumGC,
		PauseTotalNs: ms.PauseTotalNs,
	}
}

// CaptureAfterGC runs a collection first so the heap counters describe
// live data rather than garbage awaiting sweep.
func CaptureAfterGC() *model.RuntimeStats {
	runtime.GC()
	return CaptureRuntimeStats()
}

// AllocDelta returns the bytes allocated between two snapshots.
// Returns 0 when the snapshots are out of order.
func AllocDelta(before, after *model.RuntimeStats) uint64 {
	if before == nil || after == nil || after.TotalAlloc < before.TotalAlloc {
		return 0
	}
	return after.TotalAlloc - before.TotalAlloc
}

// SplitTypeName splits a reflected type name into package and bare name.
// For example: "model.Report" -> ("model", "Report"), "*sync.Mutex" ->
// ("sync", "Mutex"). Unqualified and container shapes return an empty
// package.
func SplitTypeName(typeName string) (pkg, name string) {
	name = strings.TrimLeft(typeName, "*")
	if name == "" {
		return "", typeName
	}

	// Container shapes carry dots inside brackets, not a package.
	stop := len(name)
	if i := strings.IndexAny(name, "[({"); i != -1 {
		stop = i
	}
	dot := strings.Index(name[:stop], ".")
	if dot == -1 {
		return "", name
	}
	return name[:dot], name[dot+1:]
}

// BaseTypeName strips pointer markers from a reflected type name.
// For example: "**model.Report" -> "model.Report"
func BaseTypeName(typeName string) string {
	return strings.TrimLeft(typeName, "*")
}
