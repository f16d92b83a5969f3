package cache

import (
	"sync"
	"testing"

	"readuntil-client/rerrors"
)

func mustCache(t *testing.T, capacity int) *ChunkCache {
	t.Helper()
	cc, err := NewChunkCache(capacity)
	if err != nil {
		t.Fatalf("NewChunkCache(%d): %v", capacity, err)
	}
	return cc
}

func TestNewChunkCache_InvalidCapacity(t *testing.T) {
	if _, err := NewChunkCache(0); !rerrors.Is(err, rerrors.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
	if _, err := NewChunkCache(-1); !rerrors.Is(err, rerrors.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func TestChunkCache_ReplacementAccounting(t *testing.T) {
	// scenario 2 (spec.md §8): cache_size=2, put(ch=1,r=5) twice ->
	// replaced=1, missed=0, len=1.
	cc := mustCache(t, 2)
	cc.Put(1, NewChunk(1, 5, "read-a", 0, []byte("x"), nil))
	cc.Put(1, NewChunk(1, 5, "read-a", 100, []byte("y"), nil))

	missed, replaced := cc.PeekCounters()
	if missed != 0 || replaced != 1 {
		t.Fatalf("got missed=%d replaced=%d, want missed=0 replaced=1", missed, replaced)
	}
	if got := cc.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestChunkCache_EvictionAccounting(t *testing.T) {
	// scenario 3 (spec.md §8): cache_size=2, three distinct channels ->
	// missed=1, len=2, channel 1 evicted.
	cc := mustCache(t, 2)
	cc.Put(1, NewChunk(1, 5, "r1", 0, nil, nil))
	cc.Put(2, NewChunk(2, 7, "r2", 0, nil, nil))
	cc.Put(3, NewChunk(3, 9, "r3", 0, nil, nil))

	missed, replaced := cc.PeekCounters()
	if missed != 1 || replaced != 0 {
		t.Fatalf("got missed=%d replaced=%d, want missed=1 replaced=0", missed, replaced)
	}
	if got := cc.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	for cc.Len() > 0 {
		channel, _, err := cc.PopOne(true)
		if err != nil {
			t.Fatalf("PopOne: %v", err)
		}
		if channel == 1 {
			t.Fatal("channel 1 still resident, want it evicted")
		}
	}
}

func TestChunkCache_CapacityOneBoundary(t *testing.T) {
	cc := mustCache(t, 1)
	cc.Put(1, NewChunk(1, 1, "a", 0, nil, nil))
	cc.Put(2, NewChunk(2, 1, "b", 0, nil, nil))

	missed, _ := cc.PeekCounters()
	if missed != 1 {
		t.Fatalf("missed = %d, want 1", missed)
	}
	if got := cc.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	channel, _, err := cc.PopOne(true)
	if err != nil {
		t.Fatalf("PopOne: %v", err)
	}
	if channel != 2 {
		t.Fatalf("resident channel = %d, want 2 (the newer put)", channel)
	}
}

func TestChunkCache_PopOne_EmptyFails(t *testing.T) {
	cc := mustCache(t, 4)
	_, _, err := cc.PopOne(true)
	if !rerrors.Is(err, rerrors.StreamEmptyPop) {
		t.Fatalf("expected StreamEmptyPop, got %v", err)
	}
}

func TestChunkCache_PopBatch_NeverFailsOnEmpty(t *testing.T) {
	cc := mustCache(t, 4)
	got := cc.PopBatch(5, true)
	if len(got) != 0 {
		t.Fatalf("expected empty batch, got %d entries", len(got))
	}
}

func TestChunkCache_PopBatch_FewerThanRequested(t *testing.T) {
	cc := mustCache(t, 8)
	cc.Put(1, NewChunk(1, 1, "a", 0, nil, nil))
	cc.Put(2, NewChunk(2, 1, "b", 0, nil, nil))

	got := cc.PopBatch(10, true)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if cc.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after draining", cc.Len())
	}
}

func TestChunkCache_NewestWinsOrdering(t *testing.T) {
	// property 3 (spec.md §8): put(c, x1); put(c, x2) -> no pop after
	// the second put yields x1.
	cc := mustCache(t, 4)
	cc.Put(1, NewChunk(1, 1, "first", 0, nil, nil))
	cc.Put(1, NewChunk(1, 2, "second", 0, nil, nil))

	_, chunk, err := cc.PopOne(true)
	if err != nil {
		t.Fatalf("PopOne: %v", err)
	}
	if chunk.ReadID != "second" {
		t.Fatalf("ReadID = %q, want %q", chunk.ReadID, "second")
	}
}

func TestChunkCache_PopOne_FIFOHonorsNewestFalse(t *testing.T) {
	// spec.md §9(b): newest is honored, not always-LIFO.
	cc := mustCache(t, 4)
	cc.Put(1, NewChunk(1, 1, "oldest", 0, nil, nil))
	cc.Put(2, NewChunk(2, 1, "newest", 0, nil, nil))

	channel, chunk, err := cc.PopOne(false)
	if err != nil {
		t.Fatalf("PopOne: %v", err)
	}
	if channel != 1 || chunk.ReadID != "oldest" {
		t.Fatalf("got channel=%d chunk=%q, want channel=1 chunk=%q", channel, chunk.ReadID, "oldest")
	}
}

func TestChunkCache_RoundTripIdempotence(t *testing.T) {
	cc := mustCache(t, 4)
	cc.Put(1, NewChunk(1, 1, "x", 0, []byte("payload"), nil))
	_, first, err := cc.PopOne(true)
	if err != nil {
		t.Fatalf("PopOne: %v", err)
	}
	cc.Put(1, NewChunk(1, 1, "x", 0, []byte("payload"), nil))
	_, second, err := cc.PopOne(true)
	if err != nil {
		t.Fatalf("PopOne: %v", err)
	}
	if first.ReadID != second.ReadID || first.ReadNumber != second.ReadNumber {
		t.Fatalf("round trip produced different chunks: %+v vs %+v", first, second)
	}
	missed, replaced := cc.PeekCounters()
	if missed != 0 || replaced != 0 {
		t.Fatalf("round trip should not affect counters, got missed=%d replaced=%d", missed, replaced)
	}
}

func TestChunkCache_ConcurrentPutsRespectCapacity(t *testing.T) {
	// Each channel puts sequentially (no same-channel concurrency) with a
	// new read number each time, so every put ends up either counted as
	// missed (evicted by capacity, or overwritten by the same channel's
	// next read) or resident at the end; property 2 from spec.md §8 (with
	// no pops delivered, "delivered" is 0).
	const capacity = 16
	const channels = 256
	const putsPerChannel = 10
	cc := mustCache(t, capacity)

	var wg sync.WaitGroup
	for ch := int32(0); ch < channels; ch++ {
		wg.Add(1)
		go func(channel int32) {
			defer wg.Done()
			for r := int32(0); r < putsPerChannel; r++ {
				cc.Put(channel, NewChunk(channel, r, "r", 0, nil, nil))
				if got := cc.Len(); got > capacity {
					t.Errorf("Len() = %d exceeds capacity %d", got, capacity)
				}
			}
		}(ch)
	}
	wg.Wait()

	missed, replaced := cc.PeekCounters()
	totalPuts := uint64(channels * putsPerChannel)
	accounted := missed + replaced + uint64(cc.Len())
	if accounted != totalPuts {
		t.Fatalf("missed(%d)+replaced(%d)+resident(%d) = %d, want total puts %d",
			missed, replaced, cc.Len(), accounted, totalPuts)
	}
}
