package objsize

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShallowSize_PointeeBlocks(t *testing.T) {
	type payload struct {
		A int64
		B [4]int32
	}
	p := &payload{}

	o, ok := rootObject(p)
	require.True(t, ok)
	assert.Equal(t, uint64(reflect.TypeOf(payload{}).Size()), ShallowSize(o))
}

func TestShallowSize_SliceBackingUsesCap(t *testing.T) {
	s := make([]int64, 2, 10)

	o, ok := rootObject(s)
	require.True(t, ok)
	assert.Equal(t, uint64(10*8), ShallowSize(o), "backing is priced at cap, not len")
}

func TestShallowSize_StringData(t *testing.T) {
	s := heapString("sixteen byte str")

	o, ok := rootObject(s)
	require.True(t, ok)
	assert.Equal(t, uint64(len(s)), ShallowSize(o))
}

func TestShallowSize_MapStorageGrowsWithEntries(t *testing.T) {
	empty := map[int64]int64{}
	oEmpty, ok := rootObject(empty)
	require.True(t, ok)
	assert.Equal(t, uint64(mapHeaderBytes), ShallowSize(oEmpty))

	small := map[int64]int64{1: 1}
	large := map[int64]int64{}
	for i := int64(0); i < 100; i++ {
		large[i] = i
	}

	oSmall, _ := rootObject(small)
	oLarge, _ := rootObject(large)
	assert.Greater(t, ShallowSize(oSmall), ShallowSize(oEmpty))
	assert.Greater(t, ShallowSize(oLarge), ShallowSize(oSmall))
}

func TestShallowSize_ChannelBuffer(t *testing.T) {
	ch := make(chan int64, 4)

	o, ok := rootObject(ch)
	require.True(t, ok)
	assert.Equal(t, uint64(chanHeaderBytes)+4*8, ShallowSize(o))

	unbuffered := make(chan int64)
	o, _ = rootObject(unbuffered)
	assert.Equal(t, uint64(chanHeaderBytes), ShallowSize(o))
}

func TestShallowSize_FunctionsAreOnePointer(t *testing.T) {
	fn := func() {}

	o, ok := rootObject(fn)
	require.True(t, ok)
	assert.Equal(t, uint64(ptrSize), ShallowSize(o))
}

func TestShallowSize_InvalidObject(t *testing.T) {
	assert.Equal(t, uint64(0), ShallowSize(Object{}))
}

func TestDeepSize_StructWithMixedFields(t *testing.T) {
	type record struct {
		Name string
		Data []byte
		Next *record
	}
	name := heapString("record-name")
	r := &record{
		Name: name,
		Data: make([]byte, 32),
		Next: &record{Name: heapString("tail")},
	}

	structSize := uint64(reflect.TypeOf(record{}).Size())
	want := structSize + // r's block
		uint64(len(name)) + // name data
		32 + // byte backing
		structSize + // tail block
		uint64(len("tail")) // tail name data
	assert.Equal(t, want, DeepSize(r))
}

func TestDeepSize_ChannelContentsInvisible(t *testing.T) {
	ch := make(chan *[]byte, 2)
	item := make([]byte, 4096)
	ch <- &item

	// Only header and ring buffer count; the buffered pointer's target
	// cannot be seen through reflection.
	assert.Equal(t, uint64(chanHeaderBytes)+2*uint64(ptrSize), DeepSize(ch))
}

func TestDeepSize_MapCountsKeyAndValueBlocks(t *testing.T) {
	k := heapString("key-block")
	v := []int64{1, 2, 3}
	m := map[string][]int64{k: v}

	o, _ := rootObject(m)
	want := ShallowSize(o) + uint64(len(k)) + 3*8
	assert.Equal(t, want, DeepSize(m))
}

func TestCustomSizeFunc_CountsBlocks(t *testing.T) {
	s := NewSettings().WithSizeFunc(func(Object) uint64 { return 1 })

	type node struct{ next *node }
	a := &node{}
	b := &node{}
	a.next = b

	assert.Equal(t, uint64(2), s.DeepSize(a), "a counting size function sees one unit per block")
}
