package objsize

// SizeFunc prices a single block in bytes. The engine calls it once
// per yielded block; it must not traverse.
type SizeFunc func(o Object) uint64

// ShallowSize is the default size function. It prices exactly the
// block itself:
//
//   - plain blocks by their type size
//   - slice backings as cap times the element size
//   - string data by its byte length
//   - map and channel storage by the layout approximations in
//     layout_unsafe.go
//   - function values as one pointer word
//
// Headers that live inside another block (a slice field's three words,
// say) are part of that block and not re-counted here. ShallowSize
// never panics for objects produced by a traversal.
func ShallowSize(o Object) uint64 {
	if !o.isValid() {
		return 0
	}

	switch o.class {
	case classSlice:
		return uint64(o.n) * uint64(o.val.Type().Elem().Size())
	case classString:
		return uint64(o.n)
	case classMap:
		return mapStorageBytes(o.val.Len(), o.val.Type().Key(), o.val.Type().Elem())
	case classChan:
		return chanStorageBytes(o.val.Cap(), o.val.Type().Elem())
	case classFunc:
		return uint64(ptrSize)
	default:
		return uint64(o.val.Type().Size())
	}
}
