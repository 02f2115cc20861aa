package profiling

import (
	"runtime"
	"strings"
	"testing"
)

func TestCaptureRuntimeStats(t *testing.T) {
	stats := CaptureRuntimeStats()

	if stats.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", stats.GoVersion, runtime.Version())
	}
	if !strings.HasPrefix(stats.GoVersion, "go") {
		t.Errorf("GoVersion %q does not look like a Go version", stats.GoVersion)
	}
	if stats.NumGoroutine < 1 {
		t.Errorf("NumGoroutine = %d, want >= 1", stats.NumGoroutine)
	}
	if stats.HeapAlloc == 0 {
		t.Error("HeapAlloc should be nonzero in a running test")
	}
	if stats.HeapSys < stats.HeapAlloc {
		t.Errorf("HeapSys %d < HeapAlloc %d", stats.HeapSys, stats.HeapAlloc)
	}
	if stats.HeapObjects == 0 {
		t.Error("HeapObjects should be nonzero in a running test")
	}
}

func TestCaptureAfterGC(t *testing.T) {
	before := CaptureRuntimeStats()
	after := CaptureAfterGC()

	if after.NumGC <= before.NumGC {
		t.Errorf("NumGC did not advance: before %d, after %d", before.NumGC, after.NumGC)
	}
}

func TestAllocDelta(t *testing.T) {
	before := CaptureRuntimeStats()

	// Allocate something measurable.
	buf := make([]byte, 1<<20)
	for i := range buf {
		buf[i] = byte(i)
	}

	after := CaptureRuntimeStats()
	if delta := AllocDelta(before, after); delta < 1<<20 {
		t.Errorf("AllocDelta = %d, want >= %d", delta, 1<<20)
	}
	runtime.KeepAlive(buf)

	// Swapped or missing snapshots report zero.
	if delta := AllocDelta(after, before); delta != 0 {
		t.Errorf("AllocDelta with swapped snapshots = %d, want 0", delta)
	}
	if delta := AllocDelta(nil, after); delta != 0 {
		t.Errorf("AllocDelta with nil before = %d, want 0", delta)
	}
}

func TestSplitTypeName(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedPkg  string
		expectedName string
	}{
		{"qualified", "model.Report", "model", "Report"},
		{"pointer", "*sync.Mutex", "sync", "Mutex"},
		{"double pointer", "**bytes.Buffer", "bytes", "Buffer"},
		{"builtin", "int", "", "int"},
		{"slice", "[]model.Report", "", "[]model.Report"},
		{"map", "map[string]int", "", "map[string]int"},
		{"func", "func(int) error", "", "func(int) error"},
		{"anonymous struct", "struct { A int }", "", "struct { A int }"},
		{"generic", "collections.Pool[model.Report]", "collections", "Pool[model.Report]"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, name := SplitTypeName(tt.input)
			if pkg != tt.expectedPkg || name != tt.expectedName {
				t.Errorf("SplitTypeName(%q) = (%q, %q), want (%q, %q)",
					tt.input, pkg, name, tt.expectedPkg, tt.expectedName)
			}
		})
	}
}

func TestBaseTypeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"*model.Report", "model.Report"},
		{"**model.Report", "model.Report"},
		{"model.Report", "model.Report"},
		{"[]byte", "[]byte"},
	}

	for _, tt := range tests {
		if got := BaseTypeName(tt.input); got != tt.expected {
			t.Errorf("BaseTypeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
