package coordinator

import (
	"time"

	"readuntil-client/rpc"
)

// AllowedMinChunkSize is the hard ceiling min_chunk_size is clamped to,
// per spec.md §4.4.
const AllowedMinChunkSize = 4000

// Config holds the per-session knobs the coordinator needs to drive the
// stream. It is built by the Client façade from spec.md §4.5's Run
// parameters; there is no environment-variable override layer here
// because every knob already has an explicit, documented call-site
// default (unlike the ambient ChunkCache capacity, which the façade
// does source from its own construction-time options).
type Config struct {
	FirstChannel int32
	LastChannel  int32
	SampleType   rpc.SampleType
	MinChunkSize int32

	ActionBatch    int
	ActionThrottle time.Duration

	FilterStrands bool
	OneChunk      bool

	RunTime time.Duration
}

// clampMinChunkSize enforces AllowedMinChunkSize, returning whether a
// clamp happened so the caller can warn.
func (c *Config) clampMinChunkSize() (clamped bool) {
	if c.MinChunkSize > AllowedMinChunkSize {
		c.MinChunkSize = AllowedMinChunkSize
		return true
	}
	return false
}
