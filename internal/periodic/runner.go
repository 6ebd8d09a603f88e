// ============================================================================
// Periodic Engine Run Wrappers
// ============================================================================
//
// Package: internal/periodic
// File: runner.go
// Function: the two run wrappers described in §4.6 — retain and
//           no-retain — which time a callable's invocation and convert
//           a returned error into a types.Failure
//
// ============================================================================

package periodic

import (
	"errors"
	"fmt"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// runResult is what a wrapped callable invocation returns through the
// executor's Handle, decoded by onDone.
type runResult struct {
	startedAt  float64
	finishedAt float64
	failure    *types.Failure
}

// retainFailure keeps the callable's original error value and chain.
// Used for every executor except the process pool.
func retainFailure(err error) *types.Failure {
	return &types.Failure{Err: err}
}

// noRetainFailure renders the error to a string and discards the
// original value, matching what a process-pool executor can actually
// carry back: JSON crossed the subprocess boundary, not a live Go
// error value.
func noRetainFailure(err error) *types.Failure {
	return &types.Failure{Err: errors.New(err.Error()), Traceback: fmt.Sprintf("%+v", err)}
}
