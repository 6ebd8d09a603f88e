// ============================================================================
// Periodic Engine - Main Entry Point
// ============================================================================
//
// File: cmd/periodicengine/main.go
// Purpose: Application entry point and CLI initialization
//
// Responsibilities:
//   1. Version Management - Inject build info via ldflags
//   2. Panic Recovery - Catch unexpected panics gracefully
//   3. CLI Setup - Build and configure the Cobra command tree
//   4. Error Handling - Unified command execution error handling
//
// Version Injection:
//   go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
//
// Usage:
//   ./periodicengine --help
//   ./periodicengine run -c configs/default.yaml
//   ./periodicengine status --address localhost:7070
//   ./periodicengine add --callable heartbeat --spacing 5s
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/periodic-engine/internal/cli"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
