package collections

// ============================================================================
// Queue - FIFO frontier for breadth-first walks
// ============================================================================

// Queue is a generic FIFO queue. Dequeue advances a head index instead of
// reslicing, and the backing array is compacted once the dead prefix
// dominates, so a long walk stays O(1) amortized per operation.
type Queue[T any] struct {
	items []T
	head  int
}

// compactThreshold is the dead-prefix length above which Dequeue compacts.
const compactThreshold = 1024

// NewQueue creates a queue with room for capacity elements.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{items: make([]T, 0, capacity)}
}

// Enqueue appends v to the tail.
func (q *Queue[T]) Enqueue(v T) {
	q.items = append(q.items, v)
}

// Dequeue removes and returns the head element.
func (q *Queue[T]) Dequeue() (T, bool) {
	if q.head >= len(q.items) {
		var zero T
		return zero, false
	}
	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head > compactThreshold && q.head > len(q.items)/2 {
		q.compact()
	}
	return v, true
}

// Peek returns the head element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if q.head >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return q.head >= len(q.items)
}

// Clear drops all elements, keeping the backing array.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

func (q *Queue[T]) compact() {
	n := copy(q.items, q.items[q.head:])
	clear(q.items[n:])
	q.items = q.items[:n]
	q.head = 0
}

// ============================================================================
// Stack - LIFO used by the iterative post-order passes
// ============================================================================

// Stack is a generic LIFO stack backed by a slice.
type Stack[T any] struct {
	items []T
}

// NewStack creates a stack with room for capacity elements.
func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{items: make([]T, 0, capacity)}
}

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top element.
func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Peek returns the top element without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of stacked elements.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the stack holds no elements.
func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Clear drops all elements, keeping the backing array.
func (s *Stack[T]) Clear() {
	s.items = s.items[:0]
}

// ============================================================================
// RingBuffer - bounded history of recent entries
// ============================================================================

// RingBuffer is a fixed-capacity circular buffer. PushEvict overwrites the
// oldest entry when full, which suits keep-the-last-N history tracking.
type RingBuffer[T any] struct {
	items []T
	head  int
	count int
}

// NewRingBuffer creates a ring buffer holding up to capacity elements.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// PushEvict appends v, evicting the oldest element when full.
func (r *RingBuffer[T]) PushEvict(v T) {
	tail := (r.head + r.count) % len(r.items)
	r.items[tail] = v
	if r.count == len(r.items) {
		r.head = (r.head + 1) % len(r.items)
	} else {
		r.count++
	}
}

// Pop removes and returns the oldest element.
func (r *RingBuffer[T]) Pop() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	v := r.items[r.head]
	var zero T
	r.items[r.head] = zero
	r.head = (r.head + 1) % len(r.items)
	r.count--
	return v, true
}

// Snapshot returns the buffered elements oldest first.
func (r *RingBuffer[T]) Snapshot() []T {
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.items[(r.head+i)%len(r.items)])
	}
	return out
}

// Len returns the number of buffered elements.
func (r *RingBuffer[T]) Len() int {
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer[T]) Cap() int {
	return len(r.items)
}
