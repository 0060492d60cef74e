// Package queue is the ordered list of pending commands for one character.
// It has no locking of its own; the owning scheduler serializes access.
package queue

// Queue is FIFO with positional insertion. Index 0 runs next.
type Queue[T any] struct {
	items []T
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends to the end.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
}

// Insert places item at index i, shifting later entries back. i is clamped to [0, Size()].
func (q *Queue[T]) Insert(item T, i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(q.items) {
		q.items = append(q.items, item)
		return
	}
	q.items = append(q.items, item)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = item
}

// Pop removes and returns the front entry.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Peek returns the front entry without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

// Remove deletes the entry at index i. Out of range is a no-op.
func (q *Queue[T]) Remove(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(q.items) {
		return zero, false
	}
	item := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return item, true
}

// IndexFunc returns the index of the first entry matching fn, or -1.
func (q *Queue[T]) IndexFunc(fn func(T) bool) int {
	for i, item := range q.items {
		if fn(item) {
			return i
		}
	}
	return -1
}

func (q *Queue[T]) Size() int {
	return len(q.items)
}

// Data is a copy of the entries in execution order.
func (q *Queue[T]) Data() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue[T]) Clear() {
	q.items = nil
}
