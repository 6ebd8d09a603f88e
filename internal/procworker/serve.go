package procworker

import (
	"encoding/json"
	"io"
)

// Serve runs the subprocess side of the protocol: it reads Requests
// from r, dispatches them against reg, and writes Responses to w,
// until r reaches EOF (the parent closed the pipe, meaning shutdown).
// It returns nil on a clean EOF and otherwise the read/write error
// that ended the loop.
func Serve(r io.Reader, w io.Writer, reg Registry) error {
	for {
		var req Request
		if err := ReadFrame(r, &req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		resp := dispatch(reg, req)
		if err := WriteFrame(w, resp); err != nil {
			return err
		}
	}
}

func dispatch(reg Registry, req Request) Response {
	fn, ok := reg.Lookup(req.Func)
	if !ok {
		return Response{Err: "procworker: unknown function " + req.Func}
	}

	value, err := fn(req.Arg)
	if err != nil {
		return Response{Err: err.Error()}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return Response{Err: "procworker: encode result: " + err.Error()}
	}
	return Response{Value: encoded}
}
