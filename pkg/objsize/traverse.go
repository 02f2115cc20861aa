package objsize

import (
	"github.com/mem-analysis/pkg/collections"
	"github.com/mem-analysis/pkg/utils"
)

// objectScratch pools the buffers used for per-level referent batches.
var objectScratch = collections.NewSlicePool[Object](256)

// Iterator walks an object graph breadth-first, one block per Next
// call. Blocks come out level by level: first the roots, then
// everything they reference that was not already seen, and so on.
// Order within a level is unspecified.
//
// An Iterator is lazy: consuming half of it performs half the walk.
// It is one-shot and not safe for concurrent use.
type Iterator struct {
	filter    FilterFunc
	referents ReferentsFunc
	log       utils.Logger

	visited  *IdentitySet
	excluded *IdentitySet

	frontier *collections.Queue[Object]
	expanded []Object

	cur     Object
	level   int
	yielded int
	done    bool
}

// newIterator seeds a traversal. excluded may be nil.
func (s Settings) newIterator(roots []interface{}, excluded *IdentitySet) *Iterator {
	visited := s.visited
	if visited == nil {
		visited = NewIdentitySet()
	}

	it := &Iterator{
		filter:    s.filterOrDefault(),
		referents: s.referentsOrDefault(),
		log:       s.log,
		visited:   visited,
		excluded:  excluded,
		frontier:  collections.NewQueue[Object](len(roots)),
	}

	for _, root := range roots {
		if o, ok := rootObject(root); ok {
			it.admit(o)
		}
	}
	return it
}

// Traverse starts a breadth-first traversal from the given roots.
// Nil roots and roots that the filter rejects contribute nothing.
func (s Settings) Traverse(objs ...interface{}) *Iterator {
	return s.newIterator(objs, s.callExcludeSet())
}

// Traverse starts a traversal with default settings.
func Traverse(objs ...interface{}) *Iterator {
	return NewSettings().Traverse(objs...)
}

// callExcludeSet resolves the WithExclude subgraphs for one call.
func (s Settings) callExcludeSet() *IdentitySet {
	if len(s.exclude) == 0 {
		return nil
	}
	return s.ExcludeSet(s.exclude...)
}

// Next advances to the next block. It returns false once the graph is
// exhausted or the iterator was closed.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for it.frontier.IsEmpty() {
		if len(it.expanded) == 0 {
			it.done = true
			if it.log != nil {
				it.log.Debug("traversal exhausted after %d blocks", it.yielded)
			}
			return false
		}
		it.advanceLevel()
	}
	o, _ := it.frontier.Dequeue()
	it.cur = o
	it.expanded = append(it.expanded, o)
	it.yielded++
	return true
}

// Object returns the block produced by the last successful Next.
func (it *Iterator) Object() Object {
	return it.cur
}

// Level returns the BFS distance of the current block from the roots.
// Roots are level 0.
func (it *Iterator) Level() int {
	return it.level
}

// Visited returns the number of blocks yielded so far.
func (it *Iterator) Visited() int {
	return it.yielded
}

// Close abandons the rest of the walk. The iterator is exhausted
// afterwards; Close is idempotent.
func (it *Iterator) Close() {
	it.done = true
	it.expanded = nil
}

// advanceLevel enumerates the referents of every block yielded on the
// current level and admits the unseen ones as the next level.
func (it *Iterator) advanceLevel() {
	scratch := objectScratch.Get()
	buf := (*scratch)[:0]
	for _, o := range it.expanded {
		buf = it.referents(o, buf)
	}
	it.expanded = it.expanded[:0]
	enumerated := len(buf)

	for _, child := range buf {
		it.admit(child)
	}

	*scratch = buf[:0]
	objectScratch.Put(scratch)
	it.level++
	if it.log != nil {
		it.log.Debug("level %d: %d referents enumerated, %d admitted", it.level, enumerated, it.frontier.Len())
	}
}

// admit enqueues a candidate block unless it is excluded, already
// visited or rejected by the filter. Blocks with identity are marked
// visited at admission; identity-less blocks are distinct copies and
// admitted unconditionally.
func (it *Iterator) admit(o Object) {
	if !o.isValid() {
		return
	}
	if it.excluded != nil && it.excluded.Has(o) {
		return
	}
	if key, ok := o.id(); ok {
		if it.visited.hasKey(key) {
			return
		}
		if !it.filter(o) {
			return
		}
		it.visited.addKey(key)
	} else if !it.filter(o) {
		return
	}
	it.frontier.Enqueue(o)
}
