// Package snapshot captures an object graph as an analyzable structure:
// nodes with shallow sizes, reference edges, per-type aggregates and
// dominator-based retained sizes.
//
// A snapshot reproduces the measurement engine's admission rule, so its
// totals match what objsize reports for the same settings. What it adds
// is the edges, which single measurements never materialize.
package snapshot

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mem-analysis/pkg/collections"
	"github.com/mem-analysis/pkg/objsize"
	"github.com/mem-analysis/pkg/utils"
)

// RootID is the index of the virtual root node. It stands for the
// measured roots collectively and carries no size.
const RootID int32 = 0

// Node is one recorded block.
type Node struct {
	ID       int32  `json:"id"`
	TypeName string `json:"type"`
	Kind     string `json:"kind"`
	Size     uint64 `json:"size"`
	Level    int32  `json:"level"`

	// Refs lists the IDs of the nodes this block references directly,
	// deduplicated per node.
	Refs []int32 `json:"refs,omitempty"`
}

// Snapshot is a recorded object graph.
type Snapshot struct {
	// Nodes holds the graph, Nodes[RootID] being the virtual root.
	Nodes []Node

	// TotalBytes is the sum of all node sizes, equal to the deep size
	// of the measured roots under the same settings.
	TotalBytes uint64

	// LevelCount is the depth of the walk: roots are level 0.
	LevelCount int

	// Truncated is set when the walk hit MaxNodes or was canceled.
	Truncated bool

	idom     []int32
	retained []uint64
	log      utils.Logger
}

// Options configures a capture.
type Options struct {
	// Settings supplies the filter, size and referents strategies. The
	// zero value uses the measurement defaults.
	Settings objsize.Settings

	// Exclude lists objects whose reachable subgraphs are left out of
	// the snapshot, same as the engine's WithExclude.
	Exclude []interface{}

	// MaxNodes caps the snapshot size. 0 means unlimited. A capped
	// capture sets Truncated.
	MaxNodes int

	// Logger receives walk diagnostics.
	Logger utils.Logger
}

// Capture records the graph reachable from roots with default options.
func Capture(ctx context.Context, roots ...interface{}) (*Snapshot, error) {
	return CaptureWith(ctx, Options{}, roots...)
}

// blockKey mirrors the engine's block identity: address, type and the
// length component (cap for slice backings, len for string data).
type blockKey struct {
	addr uintptr
	typ  reflect.Type
	n    int
}

// candidate is a block waiting for admission, with the edge that led
// to it.
type candidate struct {
	obj    objsize.Object
	parent int32
	level  int32
}

var candidateScratch = collections.NewSlicePool[objsize.Object](256)

// Capture lookup tables are pooled; batch runs recycle them heavily.
var (
	visitedPool  = collections.NewMapPool[blockKey, int32](1024)
	edgeSeenPool = collections.NewMapPool[int32, bool](256)
)

// CaptureWith records the graph reachable from roots. The walk is
// breadth-first and admits blocks exactly like the measurement engine:
// excluded first, then already-visited, then the filter. Identity-less
// blocks are distinct copies, as in measurements.
func CaptureWith(ctx context.Context, opts Options, roots ...interface{}) (*Snapshot, error) {
	log := opts.Logger
	if log == nil {
		log = utils.NullLogger{}
	}

	filter := opts.Settings.Filter()
	referents := opts.Settings.Referents()
	size := opts.Settings.Size()

	var excluded *objsize.IdentitySet
	if len(opts.Exclude) > 0 {
		excluded = opts.Settings.ExcludeSet(opts.Exclude...)
	}

	snap := &Snapshot{log: log}
	snap.Nodes = append(snap.Nodes, Node{ID: RootID, TypeName: "(roots)", Kind: "root"})

	visited := visitedPool.Get()
	defer visitedPool.Put(visited)
	queue := collections.NewQueue[candidate](len(roots))
	for _, root := range roots {
		if o, ok := objsize.ObjectOf(root); ok {
			queue.Enqueue(candidate{obj: o, parent: RootID, level: 0})
		}
	}

	// A node's candidates sit contiguously in the FIFO queue, so edge
	// deduplication only needs the current parent's seen set.
	edgeSeen := edgeSeenPool.Get()
	defer edgeSeenPool.Put(edgeSeen)
	lastParent := int32(-1)
	addRef := func(parent, child int32) {
		if parent != lastParent {
			clear(edgeSeen)
			lastParent = parent
		}
		if edgeSeen[child] {
			return
		}
		edgeSeen[child] = true
		snap.Nodes[parent].Refs = append(snap.Nodes[parent].Refs, child)
	}

	dequeued := 0
	for !queue.IsEmpty() {
		if dequeued%1024 == 0 && ctx.Err() != nil {
			snap.Truncated = true
			return snap, fmt.Errorf("capture canceled after %d nodes: %w", len(snap.Nodes)-1, ctx.Err())
		}
		dequeued++

		c, _ := queue.Dequeue()
		o := c.obj

		if excluded != nil && excluded.Has(o) {
			continue
		}

		key := blockKey{addr: o.Addr(), typ: o.Type(), n: o.Len()}
		if o.HasIdentity() {
			if id, ok := visited[key]; ok {
				addRef(c.parent, id)
				continue
			}
		}
		if !filter(o) {
			continue
		}

		if opts.MaxNodes > 0 && len(snap.Nodes) > opts.MaxNodes {
			snap.Truncated = true
			log.Warn("snapshot truncated at %d nodes", opts.MaxNodes)
			break
		}

		id := int32(len(snap.Nodes))
		snap.Nodes = append(snap.Nodes, Node{
			ID:       id,
			TypeName: o.Type().String(),
			Kind:     o.Kind().String(),
			Size:     size(o),
			Level:    c.level,
		})
		if o.HasIdentity() {
			visited[key] = id
		}
		addRef(c.parent, id)

		snap.TotalBytes += snap.Nodes[id].Size
		if int(c.level)+1 > snap.LevelCount {
			snap.LevelCount = int(c.level) + 1
		}

		scratch := candidateScratch.Get()
		buf := referents(o, (*scratch)[:0])
		for _, child := range buf {
			if !child.Value().IsValid() {
				continue
			}
			queue.Enqueue(candidate{obj: child, parent: id, level: c.level + 1})
		}
		*scratch = buf[:0]
		candidateScratch.Put(scratch)
	}

	log.Debug("captured %d nodes across %d levels, %d bytes",
		len(snap.Nodes)-1, snap.LevelCount, snap.TotalBytes)
	return snap, nil
}

// ObjectCount returns the number of recorded blocks, the virtual root
// not included.
func (s *Snapshot) ObjectCount() int {
	if len(s.Nodes) == 0 {
		return 0
	}
	return len(s.Nodes) - 1
}

// Node returns a node by ID, or nil.
func (s *Snapshot) Node(id int32) *Node {
	if id < 0 || int(id) >= len(s.Nodes) {
		return nil
	}
	return &s.Nodes[id]
}
