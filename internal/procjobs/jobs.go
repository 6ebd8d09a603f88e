// ============================================================================
// Periodic Engine Process-Pool Job Registry
// ============================================================================
//
// Package: internal/procjobs
// File: jobs.go
// Function: named top-level functions safe to run on the process-pool
//           executor's subprocesses, shared between cmd/procworker
//           (which serves them) and anything in cmd/periodicengine
//           that builds a ProcessPool.Wrap call by name
//
// ============================================================================

package procjobs

import (
	"encoding/json"
	"strings"

	"github.com/ChuLiYu/periodic-engine/internal/procworker"
)

// Registry returns the set of functions the process-pool subprocess
// binary can dispatch. Adding a new process-pool-safe periodic task
// means adding its name here and in whatever registers the
// corresponding callable on the parent side.
func Registry() procworker.Registry {
	reg := procworker.NewRegistry()
	reg.Register("echo", echo)
	reg.Register("word-count", wordCount)
	return reg
}

// echo returns its argument unchanged: a round trip through the
// framing protocol with no real isolated work.
func echo(arg json.RawMessage) (any, error) {
	var v any
	if len(arg) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(arg, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// wordCount is a stand-in for a CPU-isolated periodic task: counting
// words in a block of text large enough that a deployment might want
// it off the main process's heap.
func wordCount(arg json.RawMessage) (any, error) {
	var text string
	if err := json.Unmarshal(arg, &text); err != nil {
		return nil, err
	}
	return len(strings.Fields(text)), nil
}
