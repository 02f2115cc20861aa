package objsize

import (
	"sync"
)

// RootEnumerator supplies the anchor objects that exclusive traversal
// treats as external entry points into the heap. Go exposes no portable
// way to enumerate real GC roots, so the anchors stand in for them.
type RootEnumerator interface {
	Roots() []interface{}
}

// RootsFunc adapts a plain function to RootEnumerator.
type RootsFunc func() []interface{}

// Roots calls f.
func (f RootsFunc) Roots() []interface{} { return f() }

// NoRoots is an enumerator with no anchors. Under it, exclusive
// traversal degenerates to the full traversal.
var NoRoots RootEnumerator = RootsFunc(func() []interface{} { return nil })

// RootRegistry is a concurrency-safe set of anchor objects, keyed by
// block identity. Applications register their long-lived globals once,
// typically at startup, and exclusive measurements then subtract
// whatever those globals still reach.
type RootRegistry struct {
	mu      sync.RWMutex
	entries map[identity]interface{}
}

// NewRootRegistry creates an empty registry.
func NewRootRegistry() *RootRegistry {
	return &RootRegistry{entries: make(map[identity]interface{})}
}

// Register adds anchors. Values without a block identity (plain values
// passed by copy) cannot anchor anything and are ignored.
func (r *RootRegistry) Register(objs ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, obj := range objs {
		o, ok := rootObject(obj)
		if !ok {
			continue
		}
		if key, ok := o.id(); ok {
			r.entries[key] = obj
		}
	}
}

// Unregister removes anchors previously registered.
func (r *RootRegistry) Unregister(objs ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, obj := range objs {
		o, ok := rootObject(obj)
		if !ok {
			continue
		}
		if key, ok := o.id(); ok {
			delete(r.entries, key)
		}
	}
}

// Roots returns the registered anchors in unspecified order.
func (r *RootRegistry) Roots() []interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interface{}, 0, len(r.entries))
	for _, obj := range r.entries {
		out = append(out, obj)
	}
	return out
}

// Contains reports whether the object's identity is registered.
func (r *RootRegistry) Contains(o Object) bool {
	key, ok := o.id()
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, found := r.entries[key]
	return found
}

// Len returns the number of registered anchors.
func (r *RootRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every anchor.
func (r *RootRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// GlobalRoots is the process-wide anchor registry used by default
// settings. An empty registry is a no-op: exclusive traversal then
// visits the same blocks as the full traversal.
var GlobalRoots = NewRootRegistry()
