// ============================================================================
// Periodic Engine Executor Statistics Gatherer
// ============================================================================
//
// Package: internal/executor
// File: stats.go
// Function: wraps any raw submit function with statistics bookkeeping,
//           shared by all four executor implementations
//
// Runtime is measured from submission to completion for executors that
// queue work (ThreadPool, Green, ProcessPool), and from the start of
// the run itself for the Synchronous executor, which never queues.
// startBeforeSubmit selects which of those two a given executor wants.
//
// ============================================================================

package executor

import (
	"sync"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// gatherer accumulates ExecutorStatistics under a single lock, using
// the same immutable-value-swap pattern the teacher's metrics registry
// uses: readers always see a complete snapshot, never a partially
// updated one.
type gatherer struct {
	mu                sync.Mutex
	stats             types.ExecutorStatistics
	submit            func(fn RunFunc) (Handle, error)
	startBeforeSubmit bool
	now               func() float64
}

func newGatherer(submit func(fn RunFunc) (Handle, error), startBeforeSubmit bool, now func() float64) *gatherer {
	return &gatherer{submit: submit, startBeforeSubmit: startBeforeSubmit, now: now}
}

// Submit delegates to the wrapped submit function and attaches a done
// callback that folds the outcome into the running statistics.
func (g *gatherer) Submit(fn RunFunc) (Handle, error) {
	var startedAt float64
	if g.startBeforeSubmit {
		startedAt = g.now()
	}

	h, err := g.submit(fn)
	if err != nil {
		return nil, err
	}

	if !g.startBeforeSubmit {
		startedAt = g.now()
	}

	h.AddDoneCallback(func(h Handle) { g.capture(startedAt, h) })
	return h, nil
}

func (g *gatherer) capture(startedAt float64, h Handle) {
	elapsed := g.now() - startedAt
	if elapsed < 0 {
		elapsed = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.stats
	if h.Cancelled() {
		s.Cancelled++
	} else {
		s.Executed++
		if h.Exception() != nil {
			s.Failures++
		}
		s.Runtime += durationFromSeconds(elapsed)
	}
	g.stats = s
}

func (g *gatherer) Statistics() types.ExecutorStatistics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Clear resets the counters, used by Synchronous.Restart.
func (g *gatherer) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats = types.ExecutorStatistics{}
}
