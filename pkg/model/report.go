// Package model defines the report structures produced by a
// measurement run.
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MeasureMode says how totals were computed.
type MeasureMode int

const (
	ModeDeep      MeasureMode = 0 // everything reachable from the roots
	ModeExclusive MeasureMode = 1 // minus what external anchors also reach
)

// String returns the string representation of MeasureMode.
func (m MeasureMode) String() string {
	switch m {
	case ModeDeep:
		return "deep"
	case ModeExclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// SourceKind says where the measured graph came from.
type SourceKind int

const (
	SourceFile  SourceKind = 0 // decoded from a document file
	SourceStdin SourceKind = 1 // decoded from standard input
	SourceLive  SourceKind = 2 // live in-process values
)

// String returns the string representation of SourceKind.
func (s SourceKind) String() string {
	switch s {
	case SourceFile:
		return "file"
	case SourceStdin:
		return "stdin"
	case SourceLive:
		return "live"
	default:
		return "unknown"
	}
}

// Report is the durable result of one measurement.
type Report struct {
	ID             int64                `json:"id,omitempty" db:"id"`
	UUID           string               `json:"uuid" db:"uuid"`
	Source         string               `json:"source" db:"source"`
	SourceKind     SourceKind           `json:"source_kind" db:"source_kind"`
	Mode           MeasureMode          `json:"mode" db:"mode"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	DurationMS     int64                `json:"duration_ms" db:"duration_ms"`
	TotalBytes     uint64               `json:"total_bytes" db:"total_bytes"`
	ExclusiveBytes uint64               `json:"exclusive_bytes,omitempty" db:"exclusive_bytes"`
	ObjectCount    int64                `json:"object_count" db:"object_count"`
	LevelCount     int                  `json:"level_count" db:"level_count"`
	TypeStats      map[string]*TypeStat `json:"type_stats,omitempty"`
	TopNodes       []NodeInfo           `json:"top_nodes,omitempty"`
	Runtime        *RuntimeStats        `json:"runtime,omitempty"`
	StorageKey     string               `json:"storage_key,omitempty" db:"storage_key"`
}

// TypeStat aggregates the blocks of one Go type.
type TypeStat struct {
	Count int64  `json:"count"`
	Bytes uint64 `json:"bytes"`
}

// Merge folds another stat into this one.
func (s *TypeStat) Merge(other TypeStat) {
	s.Count += other.Count
	s.Bytes += other.Bytes
}

// NodeInfo describes one block singled out in a report, usually one of
// the heaviest by retained size.
type NodeInfo struct {
	ID       int    `json:"id"`
	TypeName string `json:"type"`
	Kind     string `json:"kind"`
	Size     uint64 `json:"size"`
	Retained uint64 `json:"retained"`
	Refs     int    `json:"refs,omitempty"`
	Level    int    `json:"level"`
}

// RuntimeStats captures the Go runtime's view of the heap when the
// measurement ran.
type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	HeapSys      uint64 `json:"heap_sys"`
	HeapObjects  uint64 `json:"heap_objects"`
	TotalAlloc   uint64 `json:"total_alloc"`
	NumGC        uint32 `json:"num_gc"`
	PauseTotalNs uint64 `json:"pause_total_ns"`
}

// NewReport creates a report with a fresh UUID and timestamp.
func NewReport(source string, kind SourceKind, mode MeasureMode) *Report {
	return &Report{
		UUID:       uuid.NewString(),
		Source:     source,
		SourceKind: kind,
		Mode:       mode,
		CreatedAt:  time.Now(),
		TypeStats:  make(map[string]*TypeStat),
	}
}

// SharedBytes is the part of the deep total also reachable from
// external anchors. Zero unless both totals were measured.
func (r *Report) SharedBytes() uint64 {
	if r.ExclusiveBytes == 0 || r.ExclusiveBytes > r.TotalBytes {
		return 0
	}
	return r.TotalBytes - r.ExclusiveBytes
}

// TypeEntry pairs a type name with its aggregate for sorted listings.
type TypeEntry struct {
	Name string
	Stat TypeStat
}

// TypesBySize lists per-type aggregates, heaviest first. Ties break by
// name so output is stable.
func (r *Report) TypesBySize() []TypeEntry {
	entries := make([]TypeEntry, 0, len(r.TypeStats))
	for name, stat := range r.TypeStats {
		if stat == nil {
			continue
		}
		entries = append(entries, TypeEntry{Name: name, Stat: *stat})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stat.Bytes != entries[j].Stat.Bytes {
			return entries[i].Stat.Bytes > entries[j].Stat.Bytes
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// AddTypeStat folds one block into the per-type aggregates.
func (r *Report) AddTypeStat(typeName string, size uint64) {
	if r.TypeStats == nil {
		r.TypeStats = make(map[string]*TypeStat)
	}
	stat, ok := r.TypeStats[typeName]
	if !ok {
		stat = &TypeStat{}
		r.TypeStats[typeName] = stat
	}
	stat.Count++
	stat.Bytes += size
}
