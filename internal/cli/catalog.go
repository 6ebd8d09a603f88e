// ============================================================================
// Periodic Engine CLI - Builtin Callable Catalog
// ============================================================================
//
// Package: internal/cli
// File: catalog.go
// Purpose: the fixed set of callables a YAML config's tasks list may
//          name. Configuration (and the control-plane AddTask RPC) can
//          only reference a callable by name, never ship a function
//          value, so both the `run` command and internal/rpc.Service
//          work against this same kind of name -> func map
//
// ============================================================================

package cli

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ChuLiYu/periodic-engine/internal/executor"
)

// buildCatalog returns the callables a config's tasks may reference.
// pp is nil unless the configured executor is a process pool, in which
// case "echo" and "word-count" are wired to internal/procjobs by name
// through pp.Wrap instead of running in this process.
func buildCatalog(pp *executor.ProcessPool, log *slog.Logger) map[string]func() (any, error) {
	catalog := map[string]func() (any, error){
		"heartbeat": func() (any, error) {
			log.Info("heartbeat")
			return nil, nil
		},
		"uptime": func() (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
	}

	if pp != nil {
		catalog["echo"] = pp.Wrap("echo", "tick")
		catalog["word-count"] = pp.Wrap("word-count", strings.Repeat("word ", 64))
	}

	return catalog
}
