// Command procworker is the process-pool executor's subprocess: it
// reads JSON-framed requests from stdin, dispatches them against
// internal/procjobs.Registry, and writes JSON-framed responses to
// stdout until the parent closes its stdin.
package main

import (
	"os"

	"github.com/ChuLiYu/periodic-engine/internal/procjobs"
	"github.com/ChuLiYu/periodic-engine/internal/procworker"
)

func main() {
	if err := procworker.Serve(os.Stdin, os.Stdout, procjobs.Registry()); err != nil {
		os.Exit(1)
	}
}
