package objsize

import (
	"reflect"
)

// FilterFunc decides whether a block is counted. A block that fails the
// filter is neither yielded nor expanded, so its children are reached
// only through other paths. Nil values are never presented to a filter;
// they are not blocks at all.
type FilterFunc func(o Object) bool

// SkipSharedObjects is the default filter. It drops function values,
// which are routinely shared program-wide the way module-level
// functions are, and any block registered in GlobalRoots, so globally
// anchored structures do not inflate per-object measurements.
func SkipSharedObjects(o Object) bool {
	if o.Kind() == reflect.Func {
		return false
	}
	return !GlobalRoots.Contains(o)
}

// CountFunctions is SkipSharedObjects minus the function rule: function
// values count as single opaque blocks, deduplicated by their code or
// closure address. Use it for graphs that hold per-instance closures.
func CountFunctions(o Object) bool {
	return !GlobalRoots.Contains(o)
}

// CountAll admits every block.
func CountAll(o Object) bool {
	return true
}

// SkipRegistered builds a filter that drops blocks registered in reg,
// keeping everything else, including functions.
func SkipRegistered(reg *RootRegistry) FilterFunc {
	return func(o Object) bool {
		return !reg.Contains(o)
	}
}
