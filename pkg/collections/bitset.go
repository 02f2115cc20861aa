package collections

import (
	"math/bits"
)

// ============================================================================
// Bitset - dense boolean set keyed by node index
// ============================================================================

// Bitset is a growable bit vector. For node-indexed marking it needs one
// bit per element where map[int32]bool needs tens of bytes per entry.
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset creates a bitset sized for indexes [0, size).
func NewBitset(size int) *Bitset {
	if size <= 0 {
		size = 64
	}
	return &Bitset{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Set marks index i, growing the bitset when needed.
func (b *Bitset) Set(i int) {
	if i < 0 {
		return
	}
	w := i >> 6
	if w >= len(b.words) {
		b.grow(i + 1)
	}
	b.words[w] |= 1 << (uint(i) & 63)
	if i >= b.size {
		b.size = i + 1
	}
}

// Clear unmarks index i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i>>6 >= len(b.words) {
		return
	}
	b.words[i>>6] &^= 1 << (uint(i) & 63)
}

// Test reports whether index i is marked.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i>>6 >= len(b.words) {
		return false
	}
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// TestAndSet marks index i and reports whether it was already marked.
func (b *Bitset) TestAndSet(i int) bool {
	if i < 0 {
		return false
	}
	w := i >> 6
	if w >= len(b.words) {
		b.grow(i + 1)
	}
	mask := uint64(1) << (uint(i) & 63)
	was := b.words[w]&mask != 0
	b.words[w] |= mask
	if i >= b.size {
		b.size = i + 1
	}
	return was
}

// ClearAll unmarks every index, keeping the allocation.
func (b *Bitset) ClearAll() {
	clear(b.words)
}

// Count returns the number of marked indexes.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Size returns the highest sized index bound.
func (b *Bitset) Size() int {
	return b.size
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitset{words: words, size: b.size}
}

// Or unions other into b.
func (b *Bitset) Or(other *Bitset) {
	if other == nil {
		return
	}
	if len(other.words) > len(b.words) {
		b.grow(other.size)
	}
	for i := range other.words {
		b.words[i] |= other.words[i]
	}
	if other.size > b.size {
		b.size = other.size
	}
}

// AndNot removes every index marked in other from b.
func (b *Bitset) AndNot(other *Bitset) {
	if other == nil {
		return
	}
	n := len(b.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	for i := 0; i < n; i++ {
		b.words[i] &^= other.words[i]
	}
}

// Iterate calls fn with each marked index in ascending order until fn
// returns false.
func (b *Bitset) Iterate(fn func(i int) bool) {
	for wi, w := range b.words {
		base := wi << 6
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			if !fn(base + tz) {
				return
			}
			w &= w - 1
		}
	}
}

// ToSlice returns all marked indexes in ascending order.
func (b *Bitset) ToSlice() []int {
	out := make([]int, 0, b.Count())
	b.Iterate(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// grow doubles the word array until it covers newSize indexes.
func (b *Bitset) grow(newSize int) {
	need := (newSize + 63) / 64
	if need <= len(b.words) {
		return
	}
	capWords := len(b.words) * 2
	if capWords < need {
		capWords = need
	}
	words := make([]uint64, capWords)
	copy(words, b.words)
	b.words = words
}
