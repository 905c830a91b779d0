// Package eventlog provides a fixed-capacity, insertion-ordered history of
// timestamped samples. Pushing into a full log silently evicts the oldest
// entry.
package eventlog

import "iter"

// DefaultCapacity is used when a log is constructed with capacity < 1.
const DefaultCapacity = 16

// Sample is one raw pan delta on a single axis.
type Sample struct {
	Timestamp uint64
	Magnitude float64
}

// Log is a forgetful ring buffer. The zero value is not usable; use New.
type Log[T any] struct {
	items    []T
	capacity int
	head     int // next write position
	size     int
}

// New creates an empty log that holds at most capacity entries.
func New[T any](capacity int) *Log[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item, overwriting the oldest entry if the log is full.
func (l *Log[T]) Push(item T) {
	l.items[l.head] = item
	l.head = (l.head + 1) % l.capacity
	if l.size < l.capacity {
		l.size++
	}
}

// Clear empties the log. Capacity is unchanged.
func (l *Log[T]) Clear() {
	var zero T
	for i := range l.items {
		l.items[i] = zero
	}
	l.head = 0
	l.size = 0
}

// Len returns the number of entries currently stored.
func (l *Log[T]) Len() int {
	return l.size
}

// Cap returns the fixed capacity.
func (l *Log[T]) Cap() int {
	return l.capacity
}

// Newest returns the entry n steps back from the most recent push.
// Newest(1) is the most recent entry. ok is false when n is out of range.
func (l *Log[T]) Newest(n int) (item T, ok bool) {
	if n < 1 || n > l.size {
		return item, false
	}
	idx := (l.head - n + l.capacity) % l.capacity
	return l.items[idx], true
}

// All yields stored entries oldest to newest. Each call to the returned
// sequence starts again from the oldest entry present at that moment.
func (l *Log[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		start := l.head - l.size + l.capacity
		for i := 0; i < l.size; i++ {
			if !yield(l.items[(start+i)%l.capacity]) {
				return
			}
		}
	}
}

// Snapshot appends the stored entries, oldest first, to dst and returns
// the extended slice. Passing a buffer with enough capacity avoids
// allocation.
func (l *Log[T]) Snapshot(dst []T) []T {
	for item := range l.All() {
		dst = append(dst, item)
	}
	return dst
}
