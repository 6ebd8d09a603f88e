// ============================================================================
// Periodic Engine Auto-Discovery
// ============================================================================
//
// Package: internal/periodic
// File: discover.go
// Function: registers callables by reflecting over an object's
//           exported methods, the Go analogue of the source library's
//           inspect.getmembers() scan for functions tagged by the
//           @periodic decorator
//
// Go has no decorator mechanism, so a method cannot carry metadata the
// way a Python function can. Discoverable objects instead declare
// their own metadata via PeriodicTasks(), and Discover resolves each
// named method through reflection. Map iteration order is randomized
// by the Go runtime, which is an acceptable (indeed literal) reading
// of "discovery order is implementation-defined" — callers must not
// depend on it.
//
// ============================================================================

package periodic

import (
	"fmt"
	"reflect"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// Discoverable is implemented by objects whose periodic methods
// Discover should register. PeriodicTasks maps exported method name to
// the spec it should run under.
type Discoverable interface {
	PeriodicTasks() map[string]types.TaskSpec
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Discover registers every method named by each object's
// PeriodicTasks(). A method must take no arguments and return at most
// (value, error); anything else is a ValidationError.
func (w *Worker) Discover(objects ...Discoverable) error {
	for _, obj := range objects {
		v := reflect.ValueOf(obj)
		for name, spec := range obj.PeriodicTasks() {
			method := v.MethodByName(name)
			if !method.IsValid() {
				return &types.ValidationError{Msg: fmt.Sprintf("periodic task %q not found on %T", name, obj)}
			}
			fn, err := wrapMethod(name, method)
			if err != nil {
				return err
			}
			if _, err := w.Add(name, spec, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func wrapMethod(name string, method reflect.Value) (func() (any, error), error) {
	t := method.Type()
	if t.NumIn() != 0 {
		return nil, &types.ValidationError{Msg: fmt.Sprintf("periodic task %q must take no arguments", name)}
	}

	switch t.NumOut() {
	case 0:
		return func() (any, error) {
			method.Call(nil)
			return nil, nil
		}, nil
	case 1:
		if t.Out(0) == errorType {
			return func() (any, error) {
				out := method.Call(nil)
				err, _ := out[0].Interface().(error)
				return nil, err
			}, nil
		}
		return func() (any, error) {
			out := method.Call(nil)
			return out[0].Interface(), nil
		}, nil
	case 2:
		if t.Out(1) != errorType {
			return nil, &types.ValidationError{Msg: fmt.Sprintf("periodic task %q's second return value must be error", name)}
		}
		return func() (any, error) {
			out := method.Call(nil)
			err, _ := out[1].Interface().(error)
			return out[0].Interface(), err
		}, nil
	default:
		return nil, &types.ValidationError{Msg: fmt.Sprintf("periodic task %q must return at most (value, error)", name)}
	}
}
