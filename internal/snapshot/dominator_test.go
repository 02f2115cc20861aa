package snapshot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphSnapshot builds a snapshot by hand. sizes[0] is the virtual
// root and must be zero; refs[i] lists the outgoing edges of node i.
func graphSnapshot(t *testing.T, sizes []uint64, refs [][]int32) *Snapshot {
	t.Helper()
	require.Equal(t, len(sizes), len(refs))
	require.Zero(t, sizes[0])

	s := &Snapshot{}
	for i := range sizes {
		s.Nodes = append(s.Nodes, Node{
			ID:       int32(i),
			TypeName: fmt.Sprintf("test.node%d", i),
			Kind:     "struct",
			Size:     sizes[i],
			Refs:     refs[i],
		})
		s.TotalBytes += sizes[i]
	}
	return s
}

func TestComputeRetained_Chain(t *testing.T) {
	// 0 -> 1 -> 2 -> 3
	s := graphSnapshot(t,
		[]uint64{0, 100, 50, 25},
		[][]int32{{1}, {2}, {3}, nil},
	)
	s.ComputeRetained()

	assert.Equal(t, RootID, s.Dominator(1))
	assert.Equal(t, int32(1), s.Dominator(2))
	assert.Equal(t, int32(2), s.Dominator(3))

	assert.Equal(t, uint64(25), s.Retained(3))
	assert.Equal(t, uint64(75), s.Retained(2))
	assert.Equal(t, uint64(175), s.Retained(1))
	assert.Equal(t, s.TotalBytes, s.Retained(RootID))
}

func TestComputeRetained_Diamond(t *testing.T) {
	// 0 -> 1; 1 -> 2, 3; 2 -> 4; 3 -> 4. Node 4 is reachable two ways,
	// so only node 1 dominates it.
	s := graphSnapshot(t,
		[]uint64{0, 100, 10, 20, 40},
		[][]int32{{1}, {2, 3}, {4}, {4}, nil},
	)
	s.ComputeRetained()

	assert.Equal(t, int32(1), s.Dominator(2))
	assert.Equal(t, int32(1), s.Dominator(3))
	assert.Equal(t, int32(1), s.Dominator(4))

	assert.Equal(t, uint64(10), s.Retained(2))
	assert.Equal(t, uint64(20), s.Retained(3))
	assert.Equal(t, uint64(40), s.Retained(4))
	assert.Equal(t, uint64(170), s.Retained(1))
}

func TestComputeRetained_Cycle(t *testing.T) {
	// 0 -> 1 -> 2 -> 3 -> 1. The back edge does not change dominance:
	// the only way into the ring is through 1.
	s := graphSnapshot(t,
		[]uint64{0, 8, 16, 32},
		[][]int32{{1}, {2}, {3}, {1}},
	)
	s.ComputeRetained()

	assert.Equal(t, RootID, s.Dominator(1))
	assert.Equal(t, int32(1), s.Dominator(2))
	assert.Equal(t, int32(2), s.Dominator(3))

	assert.Equal(t, uint64(32), s.Retained(3))
	assert.Equal(t, uint64(48), s.Retained(2))
	assert.Equal(t, uint64(56), s.Retained(1))
}

func TestComputeRetained_SharedAcrossRoots(t *testing.T) {
	// Two roots, one shared leaf: 0 -> 1, 2; 1 -> 3; 2 -> 3. Neither
	// root dominates the leaf, so neither retains it.
	s := graphSnapshot(t,
		[]uint64{0, 100, 200, 64},
		[][]int32{{1, 2}, {3}, {3}, nil},
	)
	s.ComputeRetained()

	assert.Equal(t, RootID, s.Dominator(1))
	assert.Equal(t, RootID, s.Dominator(2))
	assert.Equal(t, RootID, s.Dominator(3))

	assert.Equal(t, uint64(100), s.Retained(1))
	assert.Equal(t, uint64(200), s.Retained(2))
	assert.Equal(t, uint64(64), s.Retained(3))
	assert.Equal(t, uint64(364), s.Retained(RootID))
}

func TestComputeRetained_CrossEdgeIntoSubtree(t *testing.T) {
	// 0 -> 1; 1 -> 2, 3; 3 -> 4; 2 -> 4. Node 4 sits under 3 in the
	// DFS tree, but the cross edge from 2 lifts its dominator to 1.
	// This is the case the semidominator machinery exists for.
	s := graphSnapshot(t,
		[]uint64{0, 1, 2, 4, 8},
		[][]int32{{1}, {2, 3}, {4}, {4}, nil},
	)
	s.ComputeRetained()

	assert.Equal(t, int32(1), s.Dominator(4))
	assert.Equal(t, uint64(2), s.Retained(2))
	assert.Equal(t, uint64(4), s.Retained(3))
	assert.Equal(t, uint64(15), s.Retained(1))
}

func TestComputeRetained_DeepChainNoOverflow(t *testing.T) {
	// A long chain stresses the iterative DFS and path compression.
	const depth = 20000
	sizes := make([]uint64, depth+1)
	refs := make([][]int32, depth+1)
	for i := 1; i <= depth; i++ {
		sizes[i] = 1
		refs[i-1] = []int32{int32(i)}
	}

	s := graphSnapshot(t, sizes, refs)
	s.ComputeRetained()

	assert.Equal(t, uint64(depth), s.Retained(1))
	assert.Equal(t, uint64(1), s.Retained(depth))
	assert.Equal(t, int32(depth-1), s.Dominator(depth))
}

func TestComputeRetained_Idempotent(t *testing.T) {
	s := graphSnapshot(t,
		[]uint64{0, 10, 20},
		[][]int32{{1}, {2}, nil},
	)
	s.ComputeRetained()
	first := s.Retained(1)
	s.ComputeRetained()
	assert.Equal(t, first, s.Retained(1))
}

func TestComputeRetained_EmptySnapshot(t *testing.T) {
	s := graphSnapshot(t, []uint64{0}, [][]int32{nil})
	s.ComputeRetained()
	assert.Zero(t, s.Retained(RootID))
	assert.Zero(t, s.Retained(99), "out of range reads zero")
}

func TestRetained_OnCapturedGraph(t *testing.T) {
	// A captured chain is dominated top to bottom, so the head retains
	// the whole snapshot.
	chain := &record{Next: &record{Next: &record{}}}

	snap, err := Capture(context.Background(), chain)
	require.NoError(t, err)
	require.Equal(t, 3, snap.ObjectCount())

	var headID int32 = -1
	for _, n := range snap.Nodes[1:] {
		if n.Level == 0 {
			headID = n.ID
		}
	}
	require.NotEqual(t, int32(-1), headID)

	assert.Equal(t, snap.TotalBytes, snap.Retained(headID))
	assert.Equal(t, snap.TotalBytes, snap.Retained(RootID))
	assert.Equal(t, RootID, snap.Dominator(headID))
}

func BenchmarkComputeRetained(b *testing.B) {
	// A binary tree with extra cross edges every few nodes.
	const n = 10000
	sizes := make([]uint64, n)
	refs := make([][]int32, n)
	for i := 1; i < n; i++ {
		sizes[i] = 16
		parent := (i - 1) / 2
		refs[parent] = append(refs[parent], int32(i))
		if i%7 == 0 && i+3 < n {
			refs[i] = append(refs[i], int32(i+3))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := &Snapshot{}
		for j := 0; j < n; j++ {
			s.Nodes = append(s.Nodes, Node{ID: int32(j), Size: sizes[j], Refs: refs[j]})
		}
		s.ComputeRetained()
	}
}
