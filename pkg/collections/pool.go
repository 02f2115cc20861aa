// Package collections provides the generic containers used by the
// traversal engine and the snapshot analyzer.
package collections

import (
	"sync"
)

// ============================================================================
// Slice pools - scratch buffers for the per-level reference walks
// ============================================================================

// SlicePool hands out reusable slices of a fixed initial capacity.
type SlicePool[T any] struct {
	pool       sync.Pool
	initialCap int
}

// NewSlicePool creates a pool whose slices start with the given capacity.
func NewSlicePool[T any](initialCap int) *SlicePool[T] {
	if initialCap <= 0 {
		initialCap = 256
	}
	p := &SlicePool[T]{initialCap: initialCap}
	p.pool.New = func() interface{} {
		s := make([]T, 0, initialCap)
		return &s
	}
	return p
}

// Get takes a slice from the pool.
func (p *SlicePool[T]) Get() *[]T {
	return p.pool.Get().(*[]T)
}

// Put clears a slice and returns it to the pool.
func (p *SlicePool[T]) Put(s *[]T) {
	*s = (*s)[:0]
	p.pool.Put(s)
}

// Int32SlicePool is the shared pool for []int32 index scratch.
var Int32SlicePool = NewSlicePool[int32](256)

// GetInt32Slice takes a slice from Int32SlicePool.
func GetInt32Slice() *[]int32 { return Int32SlicePool.Get() }

// PutInt32Slice returns a slice to Int32SlicePool.
func PutInt32Slice(s *[]int32) { Int32SlicePool.Put(s) }

// ============================================================================
// Map pools - reusable lookup tables for repeated graph walks
// ============================================================================

// MapPool hands out reusable maps of a fixed initial capacity.
type MapPool[K comparable, V any] struct {
	pool       sync.Pool
	initialCap int
}

// NewMapPool creates a pool whose maps start with the given capacity.
func NewMapPool[K comparable, V any](initialCap int) *MapPool[K, V] {
	if initialCap <= 0 {
		initialCap = 1024
	}
	p := &MapPool[K, V]{initialCap: initialCap}
	p.pool.New = func() interface{} {
		return make(map[K]V, initialCap)
	}
	return p
}

// Get takes a map from the pool.
func (p *MapPool[K, V]) Get() map[K]V {
	return p.pool.Get().(map[K]V)
}

// Put clears a map and returns it to the pool.
func (p *MapPool[K, V]) Put(m map[K]V) {
	clear(m)
	p.pool.Put(m)
}
