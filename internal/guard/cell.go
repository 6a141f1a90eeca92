// Package guard provides a mutex-protected value cell for state that is
// read and written from timer goroutines.
package guard

import "sync"

// Cell holds a value of type T behind a mutex.
// The zero value is ready to use and holds the zero T.
type Cell[T any] struct {
	mu sync.Mutex
	v  T
}

// New creates a cell holding v.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{v: v}
}

// Get returns a copy of the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

// Set replaces the current value.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// With runs fn with exclusive access to the value.
// fn must not call back into the same cell.
func (c *Cell[T]) With(fn func(v *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.v)
}

// Swap stores v and returns the previous value.
func (c *Cell[T]) Swap(v T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.v
	c.v = v
	return old
}
