package main

import (
	"context"

	"google.golang.org/grpc"

	"readuntil-client/rpc"
)

// grpcSequencerClient adapts a raw grpc.ClientStream to rpc.SequencerClient.
// It is the seam spec.md marks as "wire transport, out of scope": the
// method name and message shapes below are a plausible placeholder for
// whatever the sequencer's real streaming RPC turns out to be, wired
// through the gob content-subtype codec registered in the rpc package
// rather than a generated protobuf stub.
type grpcSequencerClient struct {
	grpc.ClientStream
}

func (c *grpcSequencerClient) Send(msg *rpc.OutboundMessage) error {
	return c.ClientStream.SendMsg(msg)
}

func (c *grpcSequencerClient) Recv() (*rpc.InboundMessage, error) {
	msg := new(rpc.InboundMessage)
	if err := c.ClientStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

const sequencerStreamMethod = "/readuntil.Sequencer/GetLiveReads"

func newDial(conn *grpc.ClientConn) rpc.Dial {
	desc := &grpc.StreamDesc{
		StreamName:    "GetLiveReads",
		ClientStreams: true,
		ServerStreams: true,
	}
	return func(ctx context.Context, opts ...grpc.CallOption) (rpc.SequencerClient, error) {
		callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(rpc.CallContentSubtype)}, opts...)
		stream, err := conn.NewStream(ctx, desc, sequencerStreamMethod, callOpts...)
		if err != nil {
			return nil, err
		}
		return &grpcSequencerClient{ClientStream: stream}, nil
	}
}

// grpcClassificationSource resolves the session's class-code table via a
// one-shot unary call, per spec.md §6.
type grpcClassificationSource struct {
	conn *grpc.ClientConn
}

func (s *grpcClassificationSource) ClassificationMap(ctx context.Context) (map[int32]string, error) {
	var out map[int32]string
	err := s.conn.Invoke(ctx, "/readuntil.Sequencer/GetClassificationMap", struct{}{}, &out,
		grpc.CallContentSubtype(rpc.CallContentSubtype))
	return out, err
}

// acquisitionProgress is the wire shape for the one-shot
// acquired/processed lookup spec.md §6 describes.
type acquisitionProgress struct {
	Acquired  uint64
	Processed uint64
}

// grpcAcquisitionSource resolves acquired/processed sample counts, used
// only for samples-behind telemetry.
type grpcAcquisitionSource struct {
	conn *grpc.ClientConn
}

func (s *grpcAcquisitionSource) AcquisitionProgress(ctx context.Context) (acquired, processed uint64, err error) {
	var out acquisitionProgress
	if err := s.conn.Invoke(ctx, "/readuntil.Sequencer/GetAcquisitionProgress", struct{}{}, &out,
		grpc.CallContentSubtype(rpc.CallContentSubtype)); err != nil {
		return 0, 0, err
	}
	return out.Acquired, out.Processed, nil
}
