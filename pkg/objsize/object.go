package objsize

import (
	"reflect"
)

// blockClass says what storage an Object stands for, which decides both
// its pricing and its outgoing edges.
type blockClass uint8

const (
	// classValue is a block of plain bytes: a pointee, a value root or
	// an interface-boxed copy. Contents are walked inline.
	classValue blockClass = iota
	// classSlice is a slice backing array.
	classSlice
	// classString is a string's byte data.
	classString
	// classMap is a map's internal table storage.
	classMap
	// classChan is a channel's header and buffer.
	classChan
	// classFunc is an opaque function value.
	classFunc
)

// Object is one block of memory discovered during a traversal: a
// pointee, a slice backing array, a string's byte data, the internal
// storage of a map or channel, an opaque function value, or a root
// value itself.
//
// The zero Object is invalid; objects are produced by the traversal
// engine and by the referents enumerator.
type Object struct {
	// val is the value whose storage the block holds.
	val reflect.Value

	// addr is the block's starting address, or 0 when the block has no
	// observable address (value roots and interface-boxed plain values,
	// which are distinct copies by construction).
	addr uintptr

	// n is the length component of the identity: cap for slice
	// backings, len for string data, 0 otherwise.
	n int

	class blockClass
}

// identity is the deduplication key for address-bearing blocks. The
// type pointer disambiguates blocks that share an address, such as a
// struct and its first field; n separates reslices of different caps.
type identity struct {
	addr uintptr
	typ  reflect.Type
	n    int
}

// Value returns the underlying reflect.Value.
func (o Object) Value() reflect.Value {
	return o.val
}

// Type returns the block's value type.
func (o Object) Type() reflect.Type {
	return o.val.Type()
}

// Kind returns the kind of the block's value.
func (o Object) Kind() reflect.Kind {
	return o.val.Kind()
}

// Addr returns the block's starting address, 0 for identity-less
// blocks.
func (o Object) Addr() uintptr {
	return o.addr
}

// Len returns the element count tied to the block's identity: the cap
// of a slice backing, the byte length of string data, 0 otherwise.
func (o Object) Len() int {
	return o.n
}

// HasIdentity reports whether the block has an observable address and
// therefore participates in deduplication. Identity-less blocks are
// distinct copies and count every time they are encountered.
func (o Object) HasIdentity() bool {
	return o.addr != 0
}

// isValid reports whether o denotes a block at all.
func (o Object) isValid() bool {
	return o.val.IsValid()
}

func (o Object) id() (identity, bool) {
	if o.addr == 0 {
		return identity{}, false
	}
	return identity{addr: o.addr, typ: o.val.Type(), n: o.n}, true
}

// objectOf maps a reflect.Value to the block it retains, if any.
// Nil pointers, nil maps, nil channels, nil functions, empty strings
// and slices without storage retain nothing and map to no block.
//
// Pointer-shaped and header-shaped values keep a real identity; every
// other value is a copy and maps to an identity-less block.
func objectOf(v reflect.Value) (Object, bool) {
	if !v.IsValid() {
		return Object{}, false
	}

	switch v.Kind() {
	case reflect.Interface:
		// Unwrap to the dynamic value; an empty interface retains
		// nothing.
		if v.IsNil() {
			return Object{}, false
		}
		return objectOf(v.Elem())

	case reflect.Pointer:
		if v.IsNil() {
			return Object{}, false
		}
		return Object{val: v.Elem(), addr: v.Pointer(), class: classValue}, true

	case reflect.Map:
		if v.IsNil() {
			return Object{}, false
		}
		return Object{val: v, addr: v.Pointer(), class: classMap}, true

	case reflect.Chan:
		if v.IsNil() {
			return Object{}, false
		}
		return Object{val: v, addr: v.Pointer(), class: classChan}, true

	case reflect.Func:
		if v.IsNil() {
			return Object{}, false
		}
		return Object{val: v, addr: v.Pointer(), class: classFunc}, true

	case reflect.Slice:
		if v.IsNil() || v.Cap() == 0 {
			return Object{}, false
		}
		return Object{val: v, addr: v.Pointer(), n: v.Cap(), class: classSlice}, true

	case reflect.String:
		if v.Len() == 0 {
			return Object{}, false
		}
		return Object{val: v, addr: stringDataPointer(v), n: v.Len(), class: classString}, true

	case reflect.UnsafePointer:
		// Opaque; pointees behind unsafe pointers are invisible to the
		// walk. This also covers weak pointers, whose only field is an
		// unsafe word, so dead weak references can never fault.
		return Object{}, false

	default:
		// Plain value: a fresh copy with no observable address.
		return Object{val: v, class: classValue}, true
	}
}

// rootObject maps a root passed as interface{} to its block.
func rootObject(root interface{}) (Object, bool) {
	if root == nil {
		return Object{}, false
	}
	return objectOf(reflect.ValueOf(root))
}

// ObjectOf maps an arbitrary value to the block it retains, if any.
// It is the entry point for external traversal drivers, which can then
// fan out with Referents; the engine maps roots the same way.
func ObjectOf(root interface{}) (Object, bool) {
	return rootObject(root)
}
