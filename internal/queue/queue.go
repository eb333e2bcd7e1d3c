// Package queue provides the FIFO used by the transaction sequencer for
// pending submissions.
package queue

// FIFO is an unbounded first-in first-out queue backed by a slice.
//
// It is not safe for concurrent use; callers serialize access under their
// own lock.
type FIFO[T any] struct {
	items []T
}

// NewFIFO creates a FIFO with capacity preallocated for prealloc items.
func NewFIFO[T any](prealloc int) *FIFO[T] {
	return &FIFO[T]{items: make([]T, 0, prealloc)}
}

// Enqueue adds an item to the tail of the queue.
func (q *FIFO[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Dequeue removes and returns the item at the head of the queue.
// The second return value is false if the queue is empty.
func (q *FIFO[T]) Dequeue() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero // release the reference for GC
	q.items = q.items[1:]

	return item, true
}

// Peek returns the item at the head of the queue without removing it.
// The second return value is false if the queue is empty.
func (q *FIFO[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	return q.items[0], true
}

// Reset empties the queue, reusing the underlying array.
func (q *FIFO[T]) Reset() {
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
}

// IsEmpty returns true if the queue holds no items.
func (q *FIFO[T]) IsEmpty() bool {
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *FIFO[T]) Len() int {
	return len(q.items)
}
