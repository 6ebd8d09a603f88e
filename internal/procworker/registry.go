package procworker

import (
	"encoding/json"
	"fmt"
)

// Func is a named unit of process-pool work. It receives its argument
// as raw JSON (empty if the request carried none; ProcessPool.Wrap
// always sends one, so a nil argument arrives as JSON null) and
// returns a JSON-marshalable result.
type Func func(arg json.RawMessage) (any, error)

// Registry maps function names to implementations. The parent process
// and cmd/procworker must register the same names for a submission to
// resolve on the subprocess side.
type Registry map[string]Func

// NewRegistry returns an empty Registry.
func NewRegistry() Registry {
	return Registry{}
}

// Register adds fn under name, panicking on a duplicate name since
// this always indicates a programming error discovered at startup.
func (r Registry) Register(name string, fn Func) {
	if _, exists := r[name]; exists {
		panic(fmt.Sprintf("procworker: function %q already registered", name))
	}
	r[name] = fn
}

// Lookup resolves name, returning ok=false if it is not registered.
func (r Registry) Lookup(name string) (Func, bool) {
	fn, ok := r[name]
	return fn, ok
}
