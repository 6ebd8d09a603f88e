// ============================================================================
// Periodic Engine Green Executor
// ============================================================================
//
// Package: internal/executor
// File: green.go
// Function: a pool that spins up a fresh goroutine per submission up
//           to DefaultGreenPoolSize, beyond which work overflows into
//           a shared queue drained by whichever goroutine finishes
//           first
//
// This mirrors the source library's GreenFutures executor: cooperative
// workers are cheap enough to spin up on demand, but a fleet-wide cap
// still exists so an unbounded burst of submissions cannot spawn an
// unbounded number of goroutines.
//
// ============================================================================

package executor

import (
	"sync"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// DefaultGreenPoolSize is the default ceiling on concurrently live
// green workers, matching the source library's default.
const DefaultGreenPoolSize = 1000

// Green is the cooperative executor. Submit either spins up a new
// worker goroutine for the submitted work, or enqueues it for an
// existing worker to pick up once its own work (and any overflow
// ahead of it) is done.
type Green struct {
	maxWorkers int
	clock      clock.Clock
	gatherer   *gatherer
	check      AdmissionFunc

	workersWG sync.WaitGroup
	pending   sync.WaitGroup

	// mu guards active and overflow together: the decision to spawn a
	// worker vs. enqueue into overflow, and a worker's decision to
	// drain one more overflow item vs. exit and decrement active, must
	// be the same atomic step. Splitting them (checking active under
	// mu, then pushing to a separately-locked queue after releasing
	// mu) lets the last live worker observe an empty overflow, decide
	// to exit, and decrement active in the gap before the push lands,
	// orphaning the item with no worker left to drain it.
	mu       sync.Mutex
	active   int
	overflow []workItem
	shutdown bool
}

// NewGreen constructs a Green executor with the given worker ceiling.
// A maxWorkers <= 0 is replaced with DefaultGreenPoolSize.
func NewGreen(maxWorkers int, check AdmissionFunc, c clock.Clock) *Green {
	if maxWorkers <= 0 {
		maxWorkers = DefaultGreenPoolSize
	}
	g := &Green{maxWorkers: maxWorkers, clock: c, check: check}
	g.gatherer = newGatherer(g.submitRaw, false, c.Now)
	return g
}

func (g *Green) submitRaw(fn RunFunc) (Handle, error) {
	g.mu.Lock()
	if g.shutdown {
		g.mu.Unlock()
		return nil, types.ErrShutdown
	}
	if g.check != nil {
		if err := g.check(g, len(g.overflow)); err != nil {
			g.mu.Unlock()
			return nil, err
		}
	}

	h := newHandle()
	item := workItem{fn: fn, h: h}

	if g.active < g.maxWorkers {
		g.active++
		g.workersWG.Add(1)
		g.mu.Unlock()
		go g.runWorker(item)
		return h, nil
	}

	g.pending.Add(1)
	g.overflow = append(g.overflow, item)
	g.mu.Unlock()
	return h, nil
}

// runWorker executes its assigned item, then keeps draining the
// overflow queue until it is empty before exiting, so overflowed work
// does not wait for a fresh Submit to be serviced. Popping the next
// item (or deciding there is none and decrementing active) happens
// under the same lock submitRaw uses to decide spawn-vs-overflow, so
// the two can never interleave into an orphaned item.
func (g *Green) runWorker(item workItem) {
	first := true
	for {
		g.run(item)
		if !first {
			g.pending.Done()
		}
		first = false

		g.mu.Lock()
		if len(g.overflow) == 0 {
			g.active--
			g.mu.Unlock()
			g.workersWG.Done()
			return
		}
		item = g.overflow[0]
		g.overflow = g.overflow[1:]
		g.mu.Unlock()
	}
}

func (g *Green) run(item workItem) {
	value, err := item.fn()
	item.h.complete(value, err, false)
}

func (g *Green) Submit(fn RunFunc) (Handle, error) {
	return g.gatherer.Submit(fn)
}

func (g *Green) Shutdown(wait bool) {
	g.mu.Lock()
	if g.shutdown {
		g.mu.Unlock()
		return
	}
	g.shutdown = true
	g.mu.Unlock()

	if wait {
		g.workersWG.Wait()
		g.pending.Wait()
	}
}

func (g *Green) Alive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.shutdown
}

func (g *Green) Statistics() types.ExecutorStatistics {
	return g.gatherer.Statistics()
}
