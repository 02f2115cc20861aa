package objsize

import (
	"github.com/mem-analysis/pkg/collections"
)

// TraverseExclusive walks only the blocks that would become
// unreachable if the roots were released: blocks reachable from the
// roots but not from any external anchor. The roots themselves are
// always part of the result.
//
// External reachability is physical: the anchor walk uses the raw
// referents enumerator and ignores the counting filter. The measured
// roots are barred from the anchor walk, so a path that merely passes
// through a root does not make the root's subgraph external.
//
// With no anchors registered, the result equals Traverse.
func (s Settings) TraverseExclusive(objs ...interface{}) *Iterator {
	excluded := s.callExcludeSet()
	if external := s.externalSet(objs); external != nil {
		if s.log != nil {
			s.log.Debug("exclusive walk: %d externally reachable blocks", external.Len())
		}
		if excluded == nil {
			excluded = external
		} else {
			excluded.Merge(external)
		}
	}
	return s.newIterator(objs, excluded)
}

// TraverseExclusive starts an exclusive traversal with default
// settings.
func TraverseExclusive(objs ...interface{}) *Iterator {
	return NewSettings().TraverseExclusive(objs...)
}

// externalSet computes the identities reachable from the enumerator's
// anchors, with the measured roots barred from the walk and then
// dropped from the result so they stay yieldable.
func (s Settings) externalSet(roots []interface{}) *IdentitySet {
	anchors := s.anchorsOrDefault().Roots()
	if len(anchors) == 0 {
		return nil
	}

	external := NewIdentitySet()
	var rootKeys []identity
	for _, root := range roots {
		o, ok := rootObject(root)
		if !ok {
			continue
		}
		if key, ok := o.id(); ok && external.addKey(key) {
			rootKeys = append(rootKeys, key)
		}
	}

	markReachable(external, objectsOf(anchors), s.referentsOrDefault())

	for _, key := range rootKeys {
		delete(external.members, key)
	}
	return external
}

// markReachable floods set with every identity reachable from starts.
// Identities already in the set act as walls: the walk does not expand
// them. Identity-less blocks are expanded but never recorded, which is
// safe because cycles require pointers and pointees always carry
// identity.
func markReachable(set *IdentitySet, starts []Object, refFn ReferentsFunc) {
	queue := collections.NewQueue[Object](len(starts) * 2)
	for _, o := range starts {
		if key, ok := o.id(); ok && !set.addKey(key) {
			continue
		}
		queue.Enqueue(o)
	}

	scratch := objectScratch.Get()
	for !queue.IsEmpty() {
		o, _ := queue.Dequeue()
		buf := refFn(o, (*scratch)[:0])
		for _, child := range buf {
			if key, ok := child.id(); ok && !set.addKey(key) {
				continue
			}
			queue.Enqueue(child)
		}
		*scratch = buf[:0]
	}
	objectScratch.Put(scratch)
}

// objectsOf resolves a batch of interface{} roots to their blocks.
func objectsOf(objs []interface{}) []Object {
	out := make([]Object, 0, len(objs))
	for _, obj := range objs {
		if o, ok := rootObject(obj); ok {
			out = append(out, o)
		}
	}
	return out
}
