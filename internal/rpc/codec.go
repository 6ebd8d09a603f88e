// ============================================================================
// Periodic Engine Control Plane - JSON Codec
// ============================================================================
//
// Package: internal/rpc
// File: codec.go
// Purpose: a grpc-go Codec that ships JSON instead of protobuf wire
//          bytes, used in place of generated *.pb.go stubs
//
// ============================================================================

package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
