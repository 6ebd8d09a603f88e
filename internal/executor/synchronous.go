// ============================================================================
// Periodic Engine Synchronous Executor
// ============================================================================
//
// Package: internal/executor
// File: synchronous.go
// Function: runs every submission inline on the submitting goroutine;
//           useful for tests and single-threaded deployments
//
// ============================================================================

package executor

import (
	"sync"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// Synchronous executes work inline, on whatever goroutine calls
// Submit. The green flag carries no behavioral difference today (Go
// has no cooperative-vs-OS-thread distinction at this layer) but is
// kept so callers can record which mode they asked for, matching the
// source library's two constructors.
type Synchronous struct {
	green    bool
	clock    clock.Clock
	gatherer *gatherer

	mu      sync.Mutex
	shutoff bool
}

func NewSynchronous(green bool, c clock.Clock) *Synchronous {
	s := &Synchronous{green: green, clock: c}
	s.gatherer = newGatherer(s.submitRaw, true, c.Now)
	return s
}

func (s *Synchronous) submitRaw(fn RunFunc) (Handle, error) {
	if s.isShutoff() {
		return nil, types.ErrShutdown
	}
	h := newHandle()
	value, err := fn()
	h.complete(value, err, false)
	return h, nil
}

func (s *Synchronous) isShutoff() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutoff
}

func (s *Synchronous) Submit(fn RunFunc) (Handle, error) {
	return s.gatherer.Submit(fn)
}

func (s *Synchronous) Shutdown(wait bool) {
	s.mu.Lock()
	s.shutoff = true
	s.mu.Unlock()
}

func (s *Synchronous) Alive() bool {
	return !s.isShutoff()
}

func (s *Synchronous) Statistics() types.ExecutorStatistics {
	return s.gatherer.Statistics()
}

// Restart reopens a shut-down Synchronous executor for reuse, clearing
// its statistics. The source library allows this only for its
// SynchronousExecutor, not for the pooled executors, and this port
// preserves that asymmetry rather than generalizing Restart onto
// ThreadPool or Green.
func (s *Synchronous) Restart() {
	s.mu.Lock()
	s.shutoff = false
	s.mu.Unlock()
	s.gatherer.Clear()
}

// Green reports whether this executor was constructed in cooperative
// mode.
func (s *Synchronous) Green() bool {
	return s.green
}
