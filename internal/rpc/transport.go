// ============================================================================
// Periodic Engine Control Plane - Transport Helpers
// ============================================================================
//
// Package: internal/rpc
// File: transport.go
// Purpose: NewServer/Dial helpers that force the JSON codec on both
//          ends, so no protobuf content-type negotiation is needed
//
// ============================================================================

package rpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewServer constructs a grpc.Server that always encodes/decodes with
// the JSON codec registered in codec.go.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	return grpc.NewServer(opts...)
}

// Dial opens a client connection to the control plane over plaintext,
// matching the teacher's local-network "insecure transport
// credentials" dialing pattern, forcing the same JSON codec the server
// uses.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)
	return grpc.NewClient(target, opts...)
}
