package clock

import "sync"

// Fake is a deterministic Clock for tests: it replays a fixed sequence
// of "now" values in order, and repeats the final value once the
// sequence is exhausted (so callers that poll a few extra times, e.g.
// the worker's completion-callback bookkeeping, do not panic).
type Fake struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewFake builds a Fake clock that returns each of values in order on
// successive calls to Now.
func NewFake(values ...float64) *Fake {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &Fake{values: values}
}

// Now returns the next scripted value.
func (f *Fake) Now() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.next]
	if f.next < len(f.values)-1 {
		f.next++
	}
	return v
}

// Set overwrites the remaining sequence of a Fake clock.
func (f *Fake) Set(values ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
	f.next = 0
}
