// Package objsize measures the deep size of live Go object graphs.
//
// A graph is walked breadth-first through the reflection API, starting
// from one or more root values. Every distinct block of memory found on
// the way counts once: pointees, slice backing arrays, string data, map
// and channel internal storage, and values boxed in interfaces. The sum
// of the block sizes is the deep size, the total number of bytes the
// roots keep reachable.
//
//	total := objsize.DeepSize(server)
//
// The traversal itself is exposed as a lazy iterator, so callers can
// inspect the graph level by level or stop early:
//
//	it := objsize.Traverse(server)
//	for it.Next() {
//		obj := it.Object()
//		fmt.Println(it.Level(), obj.Type(), objsize.ShallowSize(obj))
//	}
//	it.Close()
//
// Exclusive mode counts only the memory that would become unreachable
// if the roots were released. Reachability from the outside is decided
// against a set of anchor objects; since Go exposes no portable GC root
// enumeration, anchors come from a process-wide registry the
// application populates with its long-lived globals:
//
//	objsize.GlobalRoots.Register(cache)
//	leaked := objsize.ExclusiveDeepSize(handler)
//
// With an empty registry, exclusive mode degenerates to the full deep
// size.
//
// All strategies are pluggable through Settings, an immutable value
// type whose With* methods return modified copies. A Settings value is
// safe to share between goroutines; a single Iterator is not.
//
// The walk never recovers panics raised by caller-supplied strategy
// functions, never dereferences weak pointers, and never mutates the
// graph it measures. Measuring a graph that is concurrently modified is
// not crash-safe against map mutation (reflection map iteration has the
// same rules as range).
package objsize
