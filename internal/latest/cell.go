// Package latest provides a single-producer, single-consumer cell that holds
// only the most recent value.
package latest

import "sync/atomic"

type snapshot[T any] struct {
	value T
	seq   uint64
}

// Cell holds the most recent value stored in it. Store replaces the whole
// value atomically and Load never blocks. A reader is not guaranteed to observe
// every stored value. The zero Cell is empty and ready to use.
type Cell[T any] struct {
	cur atomic.Pointer[snapshot[T]]
	seq atomic.Uint64
}

// Store replaces the current value. Callers must not mutate v afterwards.
func (c *Cell[T]) Store(v T) {
	c.cur.Store(&snapshot[T]{value: v, seq: c.seq.Add(1)})
}

// Load returns the current value and its sequence number. seq is 0 while the
// cell is empty; it increases by one on every Store.
func (c *Cell[T]) Load() (v T, seq uint64) {
	s := c.cur.Load()
	if s == nil {
		return v, 0
	}
	return s.value, s.seq
}
