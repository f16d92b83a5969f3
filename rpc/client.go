package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// SequencerClient is the bidirectional stream the coordinator drives.
// A real implementation is a generated gRPC client method's return
// value; this repo only depends on the shape, following the same
// Send/Recv-plus-grpc.ClientStream contract other bidirectional-stream
// wrappers in the Go ecosystem use.
type SequencerClient interface {
	Send(*OutboundMessage) error
	Recv() (*InboundMessage, error)
	grpc.ClientStream
}

// Dial opens a new SequencerClient for the session's lifetime. A
// production Dial is a thin wrapper around a generated gRPC stub's
// streaming method; out of scope here per spec.md §1.
type Dial func(ctx context.Context, opts ...grpc.CallOption) (SequencerClient, error)

// ClassificationSource resolves the session-wide class-code to
// class-name mapping once at startup (spec.md §6).
type ClassificationSource interface {
	ClassificationMap(ctx context.Context) (map[int32]string, error)
}

// AcquisitionSource resolves acquired/processed sample counts, used only
// to compute samples-behind telemetry (spec.md §6). Called once per
// inbound batch.
type AcquisitionSource interface {
	AcquisitionProgress(ctx context.Context) (acquired, processed uint64, err error)
}
