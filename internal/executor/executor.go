// ============================================================================
// Periodic Engine Executor Contract
// ============================================================================
//
// Package: internal/executor
// File: executor.go
// Function: the uniform contract every executor implementation
//           (synchronous, thread pool, green pool, process pool)
//           satisfies, so the periodic worker never knows which one
//           it was handed
//
// ============================================================================

package executor

import (
	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// Executor is the contract shared by every execution backend. Submit
// either hands the work off or rejects it immediately. The pooled
// executors return without waiting for the work to run; the
// Synchronous executor runs it inline, so its Submit returns only
// after the work has finished.
type Executor interface {
	// Submit hands fn to the executor. It returns types.ErrShutdown if
	// the executor has already been told to shut down, or a
	// RejectedSubmission-wrapped error if an admission callback refused
	// the work.
	Submit(fn RunFunc) (Handle, error)
	// Shutdown stops accepting new work. If wait is true, Shutdown
	// blocks until all previously accepted work (including anything
	// still queued) has finished running.
	Shutdown(wait bool)
	// Alive reports whether the executor is still accepting work.
	Alive() bool
	// Statistics returns a snapshot of the executor's run counters.
	Statistics() types.ExecutorStatistics
}

// AdmissionFunc is consulted by executors that support admission
// control (ThreadPool, Green) before a submission is queued. It
// receives the executor being submitted to and the current backlog
// depth (queued, not-yet-started work) and may return a
// RejectedSubmission-wrapped error to refuse the work.
type AdmissionFunc func(e Executor, backlogDepth int) error
