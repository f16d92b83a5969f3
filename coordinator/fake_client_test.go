package coordinator

import (
	"context"
	"io"
	"sync"

	"google.golang.org/grpc/metadata"

	"readuntil-client/rpc"
)

// fakeClient is a hand-rolled rpc.SequencerClient double. It is not the
// generated gRPC stub; it exists only to drive the coordinator's
// outbound/inbound loops under test, per spec.md §9's "in-repository
// mock server" contract.
type fakeClient struct {
	mu        sync.Mutex
	sent      []*rpc.OutboundMessage
	inbound   []*rpc.InboundMessage
	closeSend bool
	ctx       context.Context
}

func newFakeClient(ctx context.Context) *fakeClient {
	return &fakeClient{ctx: ctx}
}

func (f *fakeClient) Send(msg *rpc.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeClient) Recv() (*rpc.InboundMessage, error) {
	f.mu.Lock()
	if len(f.inbound) == 0 {
		f.mu.Unlock()
		<-f.ctx.Done()
		return nil, io.EOF
	}
	msg := f.inbound[0]
	f.inbound = f.inbound[1:]
	f.mu.Unlock()
	return msg, nil
}

func (f *fakeClient) enqueueInbound(msg *rpc.InboundMessage) {
	f.mu.Lock()
	f.inbound = append(f.inbound, msg)
	f.mu.Unlock()
}

func (f *fakeClient) sentMessages() []*rpc.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*rpc.OutboundMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeClient) Header() (metadata.MD, error) { return nil, nil }
func (f *fakeClient) Trailer() metadata.MD         { return nil }
func (f *fakeClient) CloseSend() error {
	f.mu.Lock()
	f.closeSend = true
	f.mu.Unlock()
	return nil
}
func (f *fakeClient) Context() context.Context        { return f.ctx }
func (f *fakeClient) SendMsg(m interface{}) error      { return nil }
func (f *fakeClient) RecvMsg(m interface{}) error      { return nil }
