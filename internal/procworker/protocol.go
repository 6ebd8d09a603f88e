// ============================================================================
// Periodic Engine Process Worker Protocol
// ============================================================================
//
// Package: internal/procworker
// File: protocol.go
// Function: the wire protocol spoken between the process-pool executor
//           and its subprocess workers over stdin/stdout
//
// Go closures cannot cross a process boundary the way Python can
// pickle a top-level function reference, so process-pool work is
// identified by name: the caller registers named functions once
// (identically in the parent and in cmd/procworker), and submissions
// carry a name plus a JSON argument rather than a live closure.
//
// Framing is a 4-byte big-endian length prefix followed by that many
// bytes of JSON, in both directions.
//
// ============================================================================

package procworker

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Request is sent parent -> subprocess to invoke a registered
// function.
type Request struct {
	Func string          `json:"func"`
	Arg  json.RawMessage `json:"arg,omitempty"`
}

// Response is sent subprocess -> parent with the outcome.
type Response struct {
	Value json.RawMessage `json:"value,omitempty"`
	Err   string          `json:"err,omitempty"`
}

// WriteFrame writes a length-prefixed JSON encoding of v to w.
func WriteFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("procworker: encode frame: %w", err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("procworker: write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("procworker: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON frame from r into v.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(header[:])
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("procworker: read frame body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("procworker: decode frame: %w", err)
	}
	return nil
}
