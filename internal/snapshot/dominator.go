package snapshot

import (
	"github.com/mem-analysis/pkg/collections"
)

// Dominator computation and retained sizes.
//
// The retained size of a node is what would become unreachable if its
// incoming edges were cut: its own size plus the sizes of everything it
// dominates. Immediate dominators come from the Lengauer-Tarjan
// algorithm ("A Fast Algorithm for Finding Dominators in a Flowgraph",
// 1979), the same computation heap analyzers like Eclipse MAT run on
// much larger graphs.

// domState holds the Lengauer-Tarjan working arrays, indexed by node
// ID. DFS numbers are 1-based; 0 means unvisited or undefined.
type domState struct {
	parent   []int32
	semi     []int32
	idom     []int32
	ancestor []int32
	label    []int32
	bucket   [][]int32

	dfn    []int32
	vertex []int32
	count  int32
}

// ComputeRetained computes immediate dominators and retained sizes.
// Idempotent; TopNodes and Retained call it on demand.
func (s *Snapshot) ComputeRetained() {
	if s.retained != nil {
		return
	}
	s.computeDominators()
	s.accumulateRetained()
}

// Dominator returns the immediate dominator of a node. Top-level nodes
// report RootID; the root reports itself.
func (s *Snapshot) Dominator(id int32) int32 {
	s.ComputeRetained()
	if id <= 0 || int(id) >= len(s.idom) {
		return RootID
	}
	return s.idom[id]
}

// Retained returns the retained size of a node. The virtual root
// retains the whole snapshot.
func (s *Snapshot) Retained(id int32) uint64 {
	s.ComputeRetained()
	if id < 0 || int(id) >= len(s.retained) {
		return 0
	}
	return s.retained[id]
}

func (s *Snapshot) computeDominators() {
	n := len(s.Nodes)
	st := &domState{
		parent:   make([]int32, n),
		semi:     make([]int32, n),
		idom:     make([]int32, n),
		ancestor: make([]int32, n),
		label:    make([]int32, n),
		bucket:   make([][]int32, n),
		dfn:      make([]int32, n),
		vertex:   make([]int32, n+1),
	}
	for i := range st.label {
		st.label[i] = int32(i)
	}

	// Depth-first numbering from the virtual root. Every queued pair
	// carries its spanning-tree parent; the first pop of a node wins.
	stack := collections.NewStack[[2]int32](64)
	stack.Push([2]int32{RootID, RootID})
	for !stack.IsEmpty() {
		pair, _ := stack.Pop()
		v, par := pair[0], pair[1]
		if st.dfn[v] != 0 {
			continue
		}
		st.count++
		st.dfn[v] = st.count
		st.vertex[st.count] = v
		st.semi[v] = st.count
		st.parent[v] = par
		for _, w := range s.Nodes[v].Refs {
			if st.dfn[w] == 0 {
				stack.Push([2]int32{w, v})
			}
		}
	}

	// Predecessor lists with exact capacities.
	predCount := make([]int32, n)
	for v := range s.Nodes {
		for _, w := range s.Nodes[v].Refs {
			predCount[w]++
		}
	}
	preds := make([][]int32, n)
	for i, c := range predCount {
		if c > 0 {
			preds[i] = make([]int32, 0, c)
		}
	}
	for v := range s.Nodes {
		for _, w := range s.Nodes[v].Refs {
			preds[w] = append(preds[w], int32(v))
		}
	}

	eval := func(v int32) int32 {
		if st.ancestor[v] == 0 {
			return v
		}
		compressPath(st, v)
		return st.label[v]
	}

	// Semidominators in reverse DFS order, then implicit idoms via the
	// buckets, exactly as the 1979 paper structures it.
	for i := st.count; i >= 2; i-- {
		w := st.vertex[i]

		for _, v := range preds[w] {
			if st.dfn[v] == 0 {
				continue
			}
			var u int32
			if st.dfn[v] <= st.dfn[w] {
				u = v
			} else {
				u = eval(v)
			}
			if st.semi[u] < st.semi[w] {
				st.semi[w] = st.semi[u]
			}
		}

		semiNode := st.vertex[st.semi[w]]
		st.bucket[semiNode] = append(st.bucket[semiNode], w)
		st.ancestor[w] = st.parent[w]

		for _, v := range st.bucket[st.parent[w]] {
			u := eval(v)
			if st.semi[u] < st.semi[v] {
				st.idom[v] = u
			} else {
				st.idom[v] = st.parent[w]
			}
		}
		st.bucket[st.parent[w]] = nil
	}

	for i := int32(2); i <= st.count; i++ {
		w := st.vertex[i]
		if st.idom[w] != st.vertex[st.semi[w]] {
			st.idom[w] = st.idom[st.idom[w]]
		}
	}
	st.idom[RootID] = RootID

	// Every recorded node was reached through an edge, so all are
	// numbered; the guard catches nothing unless the graph was built
	// by hand.
	for v := 1; v < n; v++ {
		if st.dfn[v] == 0 {
			st.idom[v] = RootID
		}
	}

	s.idom = st.idom
}

// compressPath flattens the eval path iteratively so deep chains cannot
// overflow the stack. Afterwards label[v] holds the minimum-semi node
// on the path to the forest root.
func compressPath(st *domState, v int32) {
	scratch := collections.GetInt32Slice()
	path := (*scratch)[:0]
	current := v
	for st.ancestor[current] != 0 && st.ancestor[st.ancestor[current]] != 0 {
		path = append(path, current)
		current = st.ancestor[current]
	}

	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		anc := st.ancestor[node]
		if st.semi[st.label[anc]] < st.semi[st.label[node]] {
			st.label[node] = st.label[anc]
		}
		st.ancestor[node] = st.ancestor[anc]
	}

	*scratch = path[:0]
	collections.PutInt32Slice(scratch)
}

// accumulateRetained folds sizes bottom-up over the dominator tree.
// Leaves go first; a node enters the queue once its last child is done,
// so every child contribution is final when added.
func (s *Snapshot) accumulateRetained() {
	n := len(s.Nodes)

	childCount := make([]int32, n)
	for v := 1; v < n; v++ {
		childCount[s.idom[v]]++
	}
	children := make([][]int32, n)
	for i, c := range childCount {
		if c > 0 {
			children[i] = make([]int32, 0, c)
		}
	}
	for v := 1; v < n; v++ {
		children[s.idom[v]] = append(children[s.idom[v]], int32(v))
	}

	retained := make([]uint64, n)
	for i := range s.Nodes {
		retained[i] = s.Nodes[i].Size
	}

	processed := collections.NewBitset(n)
	remaining := make([]int32, n)
	copy(remaining, childCount)

	queue := collections.NewQueue[int32](n)
	for i := 0; i < n; i++ {
		if childCount[i] == 0 {
			queue.Enqueue(int32(i))
		}
	}

	for !queue.IsEmpty() {
		v, _ := queue.Dequeue()
		if processed.TestAndSet(int(v)) {
			continue
		}
		for _, c := range children[v] {
			retained[v] += retained[c]
		}
		if v != RootID {
			p := s.idom[v]
			remaining[p]--
			if remaining[p] == 0 {
				queue.Enqueue(p)
			}
		}
	}

	s.retained = retained
}
