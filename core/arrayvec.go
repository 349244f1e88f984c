package core

import (
	"errors"
	"iter"
)

// ErrRegistryFull is returned by TryPush when every slot is taken
var ErrRegistryFull = errors.New("registry full")

// ArrayVec is an append-only container over caller-provided storage. It
// never grows its backing array, so it can live in a static variable on a
// target without a heap. Only the first Len() slots are ever read.
type ArrayVec[T any] struct {
	length int
	items  []T
}

// NewArrayVec wraps storage; its length is the capacity.
func NewArrayVec[T any](storage []T) ArrayVec[T] {
	return ArrayVec[T]{items: storage}
}

// Init binds storage and resets the length. Static instances must call this
// before first use; load-time zeroing is not relied on.
func (v *ArrayVec[T]) Init(storage []T) {
	v.items = storage
	v.length = 0
}

// Reset drops every element without touching the storage
func (v *ArrayVec[T]) Reset() {
	v.length = 0
}

// Len returns the number of initialized slots
func (v *ArrayVec[T]) Len() int {
	return v.length
}

// Cap returns the fixed capacity
func (v *ArrayVec[T]) Cap() int {
	return len(v.items)
}

// TryPush appends item. When the container is full it returns
// ErrRegistryFull and leaves the contents unchanged.
func (v *ArrayVec[T]) TryPush(item T) error {
	if v.length >= len(v.items) {
		return ErrRegistryFull
	}
	v.items[v.length] = item
	v.length++
	return nil
}

// At returns a pointer to slot i, or nil past the end
func (v *ArrayVec[T]) At(i int) *T {
	if i < 0 || i >= v.length {
		return nil
	}
	return &v.items[i]
}

// All yields index and a copy of each element in insertion order
func (v *ArrayVec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.length; i++ {
			if !yield(i, v.items[i]) {
				return
			}
		}
	}
}

// Pointers yields a pointer to each element in insertion order so callers
// can mutate in place.
func (v *ArrayVec[T]) Pointers() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := 0; i < v.length; i++ {
			if !yield(&v.items[i]) {
				return
			}
		}
	}
}
