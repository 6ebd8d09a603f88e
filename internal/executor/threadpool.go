// ============================================================================
// Periodic Engine Thread Pool Executor
// ============================================================================
//
// Package: internal/executor
// File: threadpool.go
// Function: a fixed-size pool of worker goroutines pulling from a
//           shared unbounded queue, adapted from the teacher's
//           worker_pool.go Pool/Worker split
//
// Lifecycle:
//   NewThreadPool(size, admission) -> workers spin up immediately
//   Submit(fn)  -> admission check, then enqueue
//   Shutdown(wait) -> stop accepting; if wait, block until the queue
//                     (including anything already queued) drains
//
// ============================================================================

package executor

import (
	"sync"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// ThreadPool runs submitted work on a fixed set of worker goroutines.
// Submit holds a single mutex across the shutdown check, the
// admission callback, and the enqueue, so a concurrent Shutdown can
// never observe a submission half-accepted.
type ThreadPool struct {
	queue    *workQueue
	wg       sync.WaitGroup
	gatherer *gatherer
	clock    clock.Clock
	check    AdmissionFunc

	mu       sync.Mutex
	started  bool
	shutdown bool
}

// NewThreadPool starts size worker goroutines immediately. check may
// be nil to accept everything unconditionally.
func NewThreadPool(size int, check AdmissionFunc, c clock.Clock) *ThreadPool {
	tp := &ThreadPool{queue: newWorkQueue(), clock: c, check: check, started: true}
	tp.gatherer = newGatherer(tp.submitRaw, false, c.Now)
	tp.wg.Add(size)
	for i := 0; i < size; i++ {
		go tp.runWorker()
	}
	return tp
}

func (tp *ThreadPool) runWorker() {
	defer tp.wg.Done()
	for {
		item, ok := tp.queue.popBlocking()
		if !ok {
			return
		}
		value, err := item.fn()
		item.h.complete(value, err, false)
	}
}

func (tp *ThreadPool) submitRaw(fn RunFunc) (Handle, error) {
	tp.mu.Lock()
	if tp.shutdown {
		tp.mu.Unlock()
		return nil, types.ErrShutdown
	}
	if tp.check != nil {
		if err := tp.check(tp, tp.queue.len()); err != nil {
			tp.mu.Unlock()
			return nil, err
		}
	}
	h := newHandle()
	tp.queue.push(workItem{fn: fn, h: h})
	tp.mu.Unlock()
	return h, nil
}

func (tp *ThreadPool) Submit(fn RunFunc) (Handle, error) {
	return tp.gatherer.Submit(fn)
}

func (tp *ThreadPool) Shutdown(wait bool) {
	tp.mu.Lock()
	if tp.shutdown {
		tp.mu.Unlock()
		return
	}
	tp.shutdown = true
	tp.mu.Unlock()

	tp.queue.closeQueue()
	if wait {
		tp.wg.Wait()
	}
}

func (tp *ThreadPool) Alive() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return !tp.shutdown
}

func (tp *ThreadPool) Statistics() types.ExecutorStatistics {
	return tp.gatherer.Statistics()
}

// BacklogDepth reports the number of items queued but not yet handed
// to a worker, for use by an AdmissionFunc constructed outside this
// package.
func (tp *ThreadPool) BacklogDepth() int {
	return tp.queue.len()
}
