package objsize

import (
	"reflect"
	"unsafe"
)

// ptrSize is the size of a pointer word on the host.
const ptrSize = unsafe.Sizeof(uintptr(0))

// Map storage is priced against the group layout of the Go 1.24
// runtime map: groups of 8 slots, one control byte per slot, keys and
// elements stored inline, resized at 7/8 load. The descriptor cost is
// folded into mapHeaderBytes. Indirect storage of very large keys or
// elements is not modeled; such maps are priced as if inline.
const (
	mapHeaderBytes = 48
	mapGroupSlots  = 8
	mapCtrlBytes   = 8
	mapMaxLoad     = 7
)

// mapStorageBytes approximates the bytes held by a map's tables at the
// given entry count.
func mapStorageBytes(entries int, key, elem reflect.Type) uint64 {
	if entries == 0 {
		return mapHeaderBytes
	}
	groups := uint64((entries + mapMaxLoad - 1) / mapMaxLoad)
	slot := uint64(key.Size()) + uint64(elem.Size())
	return mapHeaderBytes + groups*(mapCtrlBytes+mapGroupSlots*slot)
}

// chanHeaderBytes approximates the runtime hchan header, including its
// lock and the send/recv wait queues' fixed part.
const chanHeaderBytes = 96

// chanStorageBytes approximates the bytes held by a channel: header
// plus the ring buffer sized at construction.
func chanStorageBytes(capacity int, elem reflect.Type) uint64 {
	return chanHeaderBytes + uint64(capacity)*uint64(elem.Size())
}

// stringDataPointer returns the address of a string's byte data, 0 for
// the empty string. Reading the header through unsafe.StringData does
// not copy the data.
func stringDataPointer(v reflect.Value) uintptr {
	s := v.String()
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.StringData(s)))
}
