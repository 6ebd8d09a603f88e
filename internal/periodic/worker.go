// ============================================================================
// Periodic Engine Worker
// ============================================================================
//
// Package: internal/periodic
// File: worker.go
// Function: owns the registered callables, the schedule heap, the
//           immediates queue, and the dispatch loop that submits due
//           work to an executor and folds completions back into
//           per-callable metrics
//
// Shared-resource policy: exactly one lock (mu) guards the schedule,
// immediates queue, metrics, and the tombstone flag. It is never held
// while calling into the executor's Submit, so a synchronous executor
// re-entering the completion callback cannot deadlock against it.
//
// ============================================================================

package periodic

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ChuLiYu/periodic-engine/internal/clock"
	"github.com/ChuLiYu/periodic-engine/internal/executor"
	"github.com/ChuLiYu/periodic-engine/internal/schedule"
	"github.com/ChuLiYu/periodic-engine/internal/strategy"
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// MaxLoopIdle bounds how long the dispatch loop can sleep before
// forcing a wakeup, guaranteeing forward progress even if a signal is
// missed or the clock misbehaves.
const MaxLoopIdle = 30 * time.Second

// OnFailure is called after a callable run fails, outside the
// worker's state lock so a slow or misbehaving hook cannot stall the
// dispatch loop.
type OnFailure func(name string, kind types.Kind, spacing time.Duration, failure *types.Failure)

type callableEntry struct {
	fn      func() (any, error)
	name    string
	spec    types.TaskSpec
	metrics *metricsRecord
}

// Options configures a new Worker.
type Options struct {
	Clock           clock.Clock
	Strategy        strategy.Strategy
	ExecutorFactory func() executor.Executor
	OnFailure       OnFailure
	Log             *slog.Logger
}

// Worker calls a collection of registered callables periodically,
// sleeping as needed between runs.
type Worker struct {
	clock           clock.Clock
	strategy        strategy.Strategy
	executorFactory func() executor.Executor
	onFailure       OnFailure
	log             *slog.Logger

	mu         sync.Mutex
	cond       *waiter
	callables  []callableEntry
	watchers   []*Watcher
	schedule   *schedule.Heap
	immediates []int
	tombstone  bool
	started    bool
	deadCh     chan struct{}

	executor executor.Executor
	noRetain bool
}

// New constructs a Worker with no registered callables. Use Add or
// Discover to register some before calling Start.
func New(opts Options) (*Worker, error) {
	if opts.Strategy.Post == nil || opts.Strategy.Initial == nil {
		return nil, &types.ConfigError{Msg: "worker requires a scheduling strategy"}
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewMonotonic()
	}
	if opts.ExecutorFactory == nil {
		c := opts.Clock
		opts.ExecutorFactory = func() executor.Executor { return executor.NewSynchronous(false, c) }
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	w := &Worker{
		clock:           opts.Clock,
		strategy:        opts.Strategy,
		executorFactory: opts.ExecutorFactory,
		onFailure:       opts.OnFailure,
		log:             opts.Log,
		cond:            newWaiter(),
		schedule:        schedule.New(),
		deadCh:          make(chan struct{}),
	}
	return w, nil
}

// Len reports how many callables are currently registered.
func (w *Worker) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.callables)
}

// ExecutorStatistics reports the running executor's cumulative
// statistics, or a zero value if the worker has not been started yet.
func (w *Worker) ExecutorStatistics() types.ExecutorStatistics {
	w.mu.Lock()
	ex := w.executor
	w.mu.Unlock()
	if ex == nil {
		return types.ExecutorStatistics{}
	}
	return ex.Statistics()
}

// Add registers a new callable. A disabled spec is silently dropped,
// returning (nil, nil). An invalid spec (non-positive spacing) returns
// a ConfigError. Safe to call while the worker is running.
func (w *Worker) Add(name string, spec types.TaskSpec, fn func() (any, error)) (*Watcher, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !spec.Enabled {
		return nil, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := len(w.callables)
	metrics := &metricsRecord{}
	w.callables = append(w.callables, callableEntry{fn: fn, name: name, spec: spec, metrics: metrics})
	watcher := &Watcher{name: name, metrics: metrics, mu: &w.mu}
	w.watchers = append(w.watchers, watcher)

	if spec.RunImmediately {
		w.immediates = append(w.immediates, idx)
	} else {
		next := w.strategy.Initial(spec.Spacing, w.clock.Now())
		w.schedule.Push(next, idx)
	}
	w.cond.notifyAll()
	return watcher, nil
}

// IterWatchers yields a stable snapshot of every registered watcher.
func (w *Worker) IterWatchers() func(yield func(*Watcher) bool) {
	w.mu.Lock()
	watchers := append([]*Watcher(nil), w.watchers...)
	w.mu.Unlock()

	return func(yield func(*Watcher) bool) {
		for _, watcher := range watchers {
			if !yield(watcher) {
				return
			}
		}
	}
}

// Start runs the dispatch loop until Stop is called. It returns a
// ConfigError if there are no registered callables and allowEmpty is
// false, or if the worker is already running. A worker that was
// stopped and never Reset carries its tombstone forward: Start rejects
// it with ErrShutdown rather than silently resuming the loop.
func (w *Worker) Start(allowEmpty bool) error {
	w.mu.Lock()
	if len(w.callables) == 0 && !allowEmpty {
		w.mu.Unlock()
		return &types.ConfigError{Msg: "a periodic worker cannot start without any callables"}
	}
	if w.started {
		w.mu.Unlock()
		return &types.ConfigError{Msg: "a periodic worker cannot be started twice"}
	}
	if w.tombstone {
		w.mu.Unlock()
		return types.ErrShutdown
	}
	w.started = true
	w.deadCh = make(chan struct{})
	w.mu.Unlock()

	ex := w.executorFactory()
	_, noRetain := ex.(*executor.ProcessPool)
	w.mu.Lock()
	w.executor = ex
	w.noRetain = noRetain
	w.mu.Unlock()

	defer func() {
		ex.Shutdown(true)
		w.mu.Lock()
		w.started = false
		close(w.deadCh)
		w.mu.Unlock()
	}()

	w.runLoop()
	return nil
}

// Stop sets the tombstone, asking the dispatch loop to exit after its
// current iteration. It does not cancel work already handed to the
// executor.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.tombstone = true
	w.cond.notifyAll()
	w.mu.Unlock()
}

// Reset clears the tombstone and every callable's metrics, and rebuilds
// the schedule and immediates queue from scratch. Must not be called
// while the worker is running.
func (w *Worker) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tombstone = false
	for _, entry := range w.callables {
		*entry.metrics = metricsRecord{}
	}

	w.schedule = schedule.New()
	w.immediates = nil
	now := w.clock.Now()
	for idx, entry := range w.callables {
		if entry.spec.RunImmediately {
			w.immediates = append(w.immediates, idx)
		} else {
			next := w.strategy.Initial(entry.spec.Spacing, now)
			w.schedule.Push(next, idx)
		}
	}
}

// Wait blocks until a Start call has returned, or timeout elapses (a
// non-positive timeout waits forever). It reports whether the worker
// actually stopped within the timeout.
func (w *Worker) Wait(timeout time.Duration) bool {
	w.mu.Lock()
	ch := w.deadCh
	w.mu.Unlock()

	if timeout <= 0 {
		<-ch
		return true
	}
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (w *Worker) runLoop() {
	for {
		w.mu.Lock()
		done := w.tombstone
		w.mu.Unlock()
		if done {
			return
		}
		w.processImmediates()
		w.processScheduled()
	}
}

func (w *Worker) processImmediates() {
	w.mu.Lock()
	if len(w.immediates) == 0 {
		w.mu.Unlock()
		return
	}
	idx := w.immediates[0]
	w.immediates = w.immediates[1:]
	entry := w.callables[idx]
	w.mu.Unlock()

	submittedAt := w.clock.Now()
	w.submitRun(idx, entry, types.Immediate, submittedAt)
}

func (w *Worker) processScheduled() {
	w.mu.Lock()
	for w.schedule.Len() == 0 && !w.tombstone && len(w.immediates) == 0 {
		w.cond.wait(&w.mu, MaxLoopIdle)
	}
	if w.tombstone {
		w.mu.Unlock()
		return
	}
	if len(w.immediates) > 0 {
		// Handled on the next loop iteration.
		w.mu.Unlock()
		return
	}

	submittedAt := w.clock.Now()
	nextRun, idx := w.schedule.Pop()
	whenNext := nextRun - submittedAt
	if whenNext <= 0 {
		entry := w.callables[idx]
		w.mu.Unlock()
		w.submitRun(idx, entry, types.Periodic, submittedAt)
		return
	}

	w.schedule.Push(nextRun, idx)
	waitFor := whenNext
	if waitFor > MaxLoopIdle.Seconds() {
		waitFor = MaxLoopIdle.Seconds()
	}
	w.cond.wait(&w.mu, durationFromSeconds(waitFor))
	w.mu.Unlock()
}

func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func (w *Worker) submitRun(idx int, entry callableEntry, kind types.Kind, submittedAt float64) {
	noRetain := w.noRetain
	fn := func() (any, error) {
		startedAt := w.clock.Now()
		_, err := entry.fn()
		finishedAt := w.clock.Now()

		var failure *types.Failure
		if err != nil {
			if noRetain {
				failure = noRetainFailure(err)
			} else {
				failure = retainFailure(err)
			}
		}
		return runResult{startedAt: startedAt, finishedAt: finishedAt, failure: failure}, nil
	}

	h, err := w.executor.Submit(fn)
	if err != nil {
		w.log.Warn("dropping periodic submission, executor unavailable",
			"name", entry.name, "kind", kind, "err", err)
		return
	}
	h.AddDoneCallback(func(h executor.Handle) {
		w.onDone(idx, entry, kind, submittedAt, h)
	})
}

func (w *Worker) onDone(idx int, entry callableEntry, kind types.Kind, submittedAt float64, h executor.Handle) {
	raw, _ := h.Result()
	res, _ := raw.(runResult)

	if res.failure != nil {
		w.log.Error(fmt.Sprintf("periodic callable %q failed", entry.name),
			"kind", kind, "spacing", entry.spec.Spacing, "err", res.failure.Err)
		if w.onFailure != nil {
			w.onFailure(entry.name, kind, entry.spec.Spacing, res.failure)
		}
	}

	elapsed := res.finishedAt - res.startedAt
	if elapsed < 0 {
		elapsed = 0
	}
	waiting := res.startedAt - submittedAt
	if waiting < 0 {
		waiting = 0
	}

	w.mu.Lock()
	entry.metrics.runs++
	if res.failure != nil {
		entry.metrics.failures++
	} else {
		entry.metrics.successes++
	}
	entry.metrics.elapsed += durationFromSeconds(elapsed)
	entry.metrics.elapsedWaiting += durationFromSeconds(waiting)

	snapshot := strategy.MetricsSnapshot{
		Runs:           entry.metrics.runs,
		Successes:      entry.metrics.successes,
		Failures:       entry.metrics.failures,
		Elapsed:        entry.metrics.elapsed,
		ElapsedWaiting: entry.metrics.elapsedWaiting,
	}
	nextRun := w.strategy.Post(entry.spec.Spacing, res.startedAt, res.finishedAt, snapshot)
	w.schedule.Push(nextRun, idx)
	w.cond.notifyAll()
	w.mu.Unlock()
}
