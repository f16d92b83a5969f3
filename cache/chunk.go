package cache

import "github.com/valyala/bytebufferpool"

// Chunk is an in-flight read sample: a time-slice of raw signal
// belonging to one read, delivered as a single message from the
// sequencer (spec.md §3).
type Chunk struct {
	Channel          int32
	ReadID           string
	ReadNumber       int32
	ChunkStartSample uint64

	// RawData holds the chunk's raw signal bytes in a pooled buffer.
	// Callers that take ownership of a Chunk (via PopOne/PopBatch) must
	// call Release when done so the buffer returns to the pool.
	RawData *bytebufferpool.ByteBuffer

	Classifications []int32

	Median       *float64
	MedianBefore *float64
}

// NewChunk allocates a Chunk with a fresh pooled buffer containing a
// copy of raw.
func NewChunk(channel, readNumber int32, readID string, chunkStartSample uint64, raw []byte, classifications []int32) *Chunk {
	buf := bytebufferpool.Get()
	_, _ = buf.Write(raw)
	return &Chunk{
		Channel:          channel,
		ReadID:           readID,
		ReadNumber:       readNumber,
		ChunkStartSample: chunkStartSample,
		RawData:          buf,
		Classifications:  classifications,
	}
}

// Release returns the chunk's pooled buffer. Safe to call more than
// once; a no-op after the first call.
func (c *Chunk) Release() {
	if c.RawData == nil {
		return
	}
	bytebufferpool.Put(c.RawData)
	c.RawData = nil
}
