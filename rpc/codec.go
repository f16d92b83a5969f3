package rpc

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype this package's wire codec
// registers under. The actual sequencer wire format (a protobuf schema)
// is out of scope for this repo; gobCodec lets a real client exercise
// the genuine google.golang.org/grpc stream machinery (flow control,
// headers, deadlines) against the OutboundMessage/InboundMessage shapes
// defined here, the way inprocgrpc falls back to a named codec for
// non-proto payloads.
const codecName = "gob"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }

// CallContentSubtype is the per-RPC content-subtype to request this
// codec, e.g. grpc.CallContentSubtype(rpc.CallContentSubtype).
const CallContentSubtype = codecName
