package objsize

import (
	"reflect"
)

// ReferentsFunc enumerates the blocks a block points at. The enumerator
// appends to buf and returns the extended slice; it must not recurse
// into grandchildren, the engine drives the fan-out.
type ReferentsFunc func(o Object, buf []Object) []Object

// AppendReferents is the default referents enumerator. It walks one
// block and appends every block it references directly:
//
//   - pointees behind pointer fields and elements
//   - backing arrays of slices, byte data of strings
//   - internal storage of maps and channels
//   - values boxed in non-nil interfaces
//   - function values as opaque blocks
//
// Struct fields and array elements are part of the block itself and
// are descended inline rather than reported as blocks. Unsafe pointers
// are opaque, so nothing behind them is ever enumerated; weak pointers
// carry only an unsafe word and therefore contribute no referents,
// alive or dead.
func AppendReferents(o Object, buf []Object) []Object {
	switch o.class {
	case classMap:
		// Keys and values are stored inside the map's own tables;
		// only their outgoing edges leave the block.
		iter := o.val.MapRange()
		for iter.Next() {
			buf = appendContentEdges(iter.Key(), buf)
			buf = appendContentEdges(iter.Value(), buf)
		}
		return buf

	case classSlice:
		for i, n := 0, o.val.Len(); i < n; i++ {
			buf = appendContentEdges(o.val.Index(i), buf)
		}
		return buf

	case classString, classChan, classFunc:
		// Leaf blocks. Channel buffers cannot be read through
		// reflection and function closures are opaque.
		return buf

	default:
		return appendContentEdges(o.val, buf)
	}
}

// Referents returns the blocks referenced by o in a fresh slice.
func Referents(o Object) []Object {
	return AppendReferents(o, nil)
}

// appendContentEdges walks a value that lives inside an already-counted
// block and appends the blocks it references.
func appendContentEdges(v reflect.Value, buf []Object) []Object {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func,
		reflect.Slice, reflect.String, reflect.Interface:
		if child, ok := objectOf(v); ok {
			buf = append(buf, child)
		}

	case reflect.Struct:
		for i, n := 0, v.NumField(); i < n; i++ {
			buf = appendContentEdges(v.Field(i), buf)
		}

	case reflect.Array:
		for i, n := 0, v.Len(); i < n; i++ {
			buf = appendContentEdges(v.Index(i), buf)
		}

	case reflect.UnsafePointer:
		// Opaque by contract.
	}
	return buf
}
