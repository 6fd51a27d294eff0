package repository

import (
	"fmt"
	"iter"
	"slices"
)

// Snapshot is an immutable, point-in-time sequence of items. Once created it
// is never modified, so it can be shared freely between goroutines. The zero
// value is the empty snapshot.
type Snapshot[T any] struct {
	items []T
}

// newSnapshot takes ownership of items; the caller must not keep a reference.
func newSnapshot[T any](items []T) Snapshot[T] {
	return Snapshot[T]{items: items}
}

// Len returns the number of items.
func (s Snapshot[T]) Len() int { return len(s.items) }

// At returns the i-th item. It panics if i is out of range, like a slice.
func (s Snapshot[T]) At(i int) T { return s.items[i] }

// Slice returns a copy of the items. Modifying the copy does not affect the
// snapshot.
func (s Snapshot[T]) Slice() []T { return slices.Clone(s.items) }

// All iterates over index/item pairs in order.
func (s Snapshot[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range s.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values iterates over the items in order.
func (s Snapshot[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

func (s Snapshot[T]) String() string {
	return fmt.Sprint(s.items)
}

// with returns a new snapshot of s followed by extra. s is not modified:
// the new backing array is always freshly allocated.
func (s Snapshot[T]) with(extra ...T) Snapshot[T] {
	items := make([]T, len(s.items), len(s.items)+len(extra))
	copy(items, s.items)
	return newSnapshot(append(items, extra...))
}
