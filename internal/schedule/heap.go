// ============================================================================
// Periodic Engine Schedule Heap
// ============================================================================
//
// Package: internal/schedule
// File: heap.go
// Function: min-heap of (next_run, index) entries ordering which
//           periodic callable is due next
//
// Ordering: ascending next_run, ties broken by ascending index, so that
// of two callables due at the same instant the one registered first
// (the lower slot index) always runs first.
//
// ============================================================================

package schedule

import "container/heap"

// entry is one (next_run, index) pair living in the heap.
type entry struct {
	nextRun float64
	index   int
}

// innerHeap implements heap.Interface over a slice of entries.
type innerHeap []entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].nextRun != h[j].nextRun {
		return h[i].nextRun < h[j].nextRun
	}
	return h[i].index < h[j].index
}

func (h innerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *innerHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Heap is the schedule: a min-heap of (next_run, index) pairs. It is
// not safe for concurrent use on its own; the periodic worker guards
// every call with its waiter condition's lock.
type Heap struct {
	h innerHeap
}

// New returns an empty schedule heap.
func New() *Heap {
	return &Heap{h: make(innerHeap, 0)}
}

// Push adds a (nextRun, index) entry.
func (s *Heap) Push(nextRun float64, index int) {
	heap.Push(&s.h, entry{nextRun: nextRun, index: index})
}

// Pop removes and returns the entry with the smallest next_run (ties
// broken by smallest index).
func (s *Heap) Pop() (nextRun float64, index int) {
	e := heap.Pop(&s.h).(entry)
	return e.nextRun, e.index
}

// Len returns the number of entries currently scheduled.
func (s *Heap) Len() int {
	return len(s.h)
}
