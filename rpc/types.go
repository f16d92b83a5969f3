// Package rpc specifies the wire contract between the stream coordinator
// and the sequencer's bidirectional streaming RPC. The actual service
// and message definitions (a generated gRPC/protobuf client) are out of
// scope for this repository — see spec.md §1 — so this package only
// describes the shapes the coordinator sends and receives, modeled on
// the generic bidirectional-stream client pattern used elsewhere in the
// wider Go ecosystem (grpc.ClientStream plus Send/Recv).
package rpc

// SampleType announces the element type of a chunk's raw signal.
type SampleType int32

const (
	SampleTypeUncalibrated SampleType = iota
	SampleTypeCalibrated
)

// ActionKind identifies what an Action asks the sequencer to do.
type ActionKind int32

const (
	ActionUnblock ActionKind = iota
	ActionStopFurtherData
)

// StreamSetup is sent exactly once, before any Actions message.
type StreamSetup struct {
	FirstChannel int32
	LastChannel  int32
	SampleType   SampleType
	MinChunkSize int32
}

// Action addresses a single (channel, read) pair.
type Action struct {
	ActionID string
	Channel  int32
	Number   int32
	Kind     ActionKind
}

// Actions is a batch of outbound Action requests, sent together in one
// message to bound the number of round trips.
type Actions struct {
	Actions []Action
}

// OutboundMessage is the sum type carried on the outbound half of the
// stream: exactly one of Setup or Actions is set.
type OutboundMessage struct {
	Setup   *StreamSetup
	Actions *Actions
}

// ActionResponse reports the outcome of a previously-sent Action. The
// outcome code's meaning is defined by the remote service and is treated
// as opaque here (spec.md §9(c)).
type ActionResponse struct {
	ActionID string
	Outcome  int32
}

// ReadData is one channel's freshest chunk, as delivered by the sequencer.
type ReadData struct {
	ID                   string
	Number               int32
	ChunkStartSample     uint64
	RawData              []byte
	ChunkClassifications []int32
	Median               *float64
	MedianBefore         *float64
}

// InboundMessage is one batch received from the sequencer: zero or more
// action outcomes, plus the freshest chunk per channel in this batch.
type InboundMessage struct {
	ActionResponses []ActionResponse
	Channels        map[int32]ReadData
}
