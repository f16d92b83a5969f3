// Package cache implements the bounded, channel-keyed replacement cache
// described in spec.md §4.1: a mapping from channel to the most recent
// Chunk for that channel, with accurate replacement/eviction accounting,
// safe under concurrent producer/consumer access.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"readuntil-client/rerrors"
)

// Entry pairs a channel with the chunk popped for it.
type Entry struct {
	Channel int32
	Chunk   *Chunk
}

// ChunkCache is the bounded map described in spec.md §4.1. Capacity N is
// enforced by the underlying LRU store: a put that would exceed N evicts
// the oldest channel first. The zero value is not usable; construct with
// NewChunkCache.
type ChunkCache struct {
	mu    sync.Mutex
	store *lru.Cache[int32, *Chunk]

	// evictedDuringAdd is scratch state, written by the eviction
	// callback and read immediately after the triggering Add call.
	// Both happen while mu is held, so no extra synchronization is
	// needed for this field.
	evictedDuringAdd *Chunk

	// missed/replaced are read without locking (spec.md §5: "Counters
	// are read without locking"); writes happen under mu, which is
	// sufficient mutual exclusion for the writers themselves.
	missed   atomic.Uint64
	replaced atomic.Uint64
}

// NewChunkCache constructs a ChunkCache with the given capacity N. An
// error tagged rerrors.ConfigInvalid is returned if capacity < 1.
func NewChunkCache(capacity int) (*ChunkCache, error) {
	if capacity < 1 {
		return nil, rerrors.New(rerrors.ConfigInvalid, fmt.Sprintf("cache: capacity must be >= 1, got %d", capacity))
	}

	cc := &ChunkCache{}
	store, err := lru.NewWithEvict[int32, *Chunk](capacity, cc.onEvict)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ConfigInvalid, err)
	}
	cc.store = store
	return cc, nil
}

// onEvict is invoked synchronously by the LRU store, still holding mu,
// whenever Add must make room for a new key.
func (cc *ChunkCache) onEvict(_ int32, chunk *Chunk) {
	cc.evictedDuringAdd = chunk
}

// Put inserts chunk under channel, applying the accounting rules of
// spec.md §4.1.
func (cc *ChunkCache) Put(channel int32, chunk *Chunk) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if existing, ok := cc.store.Peek(channel); ok {
		// Same channel already resident: no capacity eviction occurs.
		// Compare read numbers to decide replaced vs. missed, per
		// spec.md §4.1, then let Add overwrite it and move the channel
		// to the newest position.
		if existing.ReadNumber == chunk.ReadNumber {
			cc.replaced.Add(1)
		} else {
			cc.missed.Add(1)
		}
		existing.Release()
		cc.store.Add(channel, chunk)
		return
	}

	cc.evictedDuringAdd = nil
	cc.store.Add(channel, chunk)
	if victim := cc.evictedDuringAdd; victim != nil {
		cc.evictedDuringAdd = nil
		// The evicted entry belongs to a different channel than the
		// incoming chunk (channel was just established absent), so
		// per spec.md §9(a) this branch of the reference's replacement
		// rule never fires: capacity eviction always counts as missed.
		cc.missed.Add(1)
		victim.Release()
	}
}

// PopOne removes and returns the newest (LIFO) or oldest (FIFO) entry.
// Returns an rerrors.StreamEmptyPop error if the cache is empty.
func (cc *ChunkCache) PopOne(newest bool) (int32, *Chunk, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.store.Len() == 0 {
		return 0, nil, rerrors.New(rerrors.StreamEmptyPop, "cache: pop on empty cache")
	}

	if !newest {
		channel, chunk, _ := cc.store.RemoveOldest()
		return channel, chunk, nil
	}

	channel := newestKey(cc.store)
	chunk, _ := cc.store.Peek(channel)
	cc.store.Remove(channel)
	return channel, chunk, nil
}

// PopBatch removes and returns up to k entries, newest-first or
// oldest-first per the newest flag. Never fails; an empty batch is a normal result
// for k <= 0 or an empty cache.
func (cc *ChunkCache) PopBatch(k int, newest bool) []Entry {
	if k <= 0 {
		return nil
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	n := cc.store.Len()
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}

	out := make([]Entry, 0, k)
	if !newest {
		for i := 0; i < k; i++ {
			channel, chunk, ok := cc.store.RemoveOldest()
			if !ok {
				break
			}
			out = append(out, Entry{Channel: channel, Chunk: chunk})
		}
		return out
	}

	keys := cc.store.Keys() // oldest -> newest
	for i := len(keys) - 1; i >= 0 && len(out) < k; i-- {
		channel := keys[i]
		chunk, ok := cc.store.Peek(channel)
		if !ok {
			continue
		}
		cc.store.Remove(channel)
		out = append(out, Entry{Channel: channel, Chunk: chunk})
	}
	return out
}

// Len returns the current entry count.
func (cc *ChunkCache) Len() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.store.Len()
}

// PeekCounters reads missed/replaced without taking the cache's lock,
// per the best-effort counter-read policy in spec.md §5.
func (cc *ChunkCache) PeekCounters() (missed, replaced uint64) {
	return cc.missed.Load(), cc.replaced.Load()
}

func newestKey(store *lru.Cache[int32, *Chunk]) int32 {
	keys := store.Keys()
	return keys[len(keys)-1]
}
