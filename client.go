// Package readuntil implements the client-facing façade described in
// spec.md §3-§6: a single-session Run, chunk retrieval, action requests,
// and counters, backed by the ChunkCache/ActionQueue/Classifier/
// StreamCoordinator components underneath. It mirrors the teacher's
// DefaultProxyInstance façade: one exported struct owning the
// session-scoped state, construction-time options, and thin methods that
// delegate to the real workhorses.
package readuntil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"readuntil-client/actionqueue"
	"readuntil-client/cache"
	"readuntil-client/classifier"
	"readuntil-client/coordinator"
	"readuntil-client/logger"
	"readuntil-client/rerrors"
	"readuntil-client/rpc"
)

// Default construction-time knobs, per spec.md §4.5.
const (
	DefaultCacheSize = 512
)

// Default per-run knobs, per spec.md §4.5's Run(...) signature.
const (
	DefaultFirstChannel   = int32(1)
	DefaultLastChannel    = int32(512)
	DefaultMinChunkSize   = int32(2000)
	DefaultActionBatch    = 1000
	DefaultActionThrottle = time.Millisecond
)

// Client is the read-until session façade. The zero value is not usable;
// construct with New.
type Client struct {
	log logger.Logger

	cacheSize     int
	filterStrands bool
	oneChunk      bool

	dial              rpc.Dial
	classificationSrc rpc.ClassificationSource
	acquisitionSrc    rpc.AcquisitionSource
	onReport          func(coordinator.IntervalReport)

	running atomic.Bool

	mu    sync.Mutex
	cc    *cache.ChunkCache
	queue *actionqueue.ActionQueue
	sc    *coordinator.StreamCoordinator
}

// Option configures a Client at construction, per spec.md §4.5's
// cache_size/filter_strands/one_chunk construction knobs.
type Option func(*Client)

// WithLogger overrides the default logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithCacheSize overrides the default ChunkCache capacity.
func WithCacheSize(n int) Option {
	return func(c *Client) { c.cacheSize = n }
}

// WithFilterStrands enables the strand-like inbound filter.
func WithFilterStrands(enabled bool) Option {
	return func(c *Client) { c.filterStrands = enabled }
}

// WithOneChunk enables the one-chunk-per-read policy.
func WithOneChunk(enabled bool) Option {
	return func(c *Client) { c.oneChunk = enabled }
}

// WithOnIntervalReport forwards the coordinator's interval telemetry
// summary (at most once per second, on inbound traffic) to fn.
func WithOnIntervalReport(fn func(coordinator.IntervalReport)) Option {
	return func(c *Client) { c.onReport = fn }
}

// New constructs a Client. dial opens the sequencer's bidirectional
// stream; classificationSrc resolves the session's class-code table
// once at Run time; acquisitionSrc is optional and feeds samples-behind
// telemetry.
func New(dial rpc.Dial, classificationSrc rpc.ClassificationSource, acquisitionSrc rpc.AcquisitionSource, opts ...Option) (*Client, error) {
	if dial == nil {
		return nil, rerrors.New(rerrors.ConfigInvalid, "readuntil: dial must not be nil")
	}
	c := &Client{
		log:               logger.Default,
		cacheSize:         DefaultCacheSize,
		dial:              dial,
		classificationSrc: classificationSrc,
		acquisitionSrc:    acquisitionSrc,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize < 1 {
		return nil, rerrors.New(rerrors.ConfigInvalid, fmt.Sprintf("readuntil: cache_size must be >= 1, got %d", c.cacheSize))
	}
	return c, nil
}

// RunParams are the per-session knobs from spec.md §4.5's Run(...)
// signature. Zero values of FirstChannel, LastChannel, MinChunkSize,
// ActionBatch and ActionThrottle fall back to the package defaults;
// RunTime and SampleType are used as given.
type RunParams struct {
	RunTime time.Duration

	FirstChannel   int32
	LastChannel    int32
	SampleType     rpc.SampleType
	MinChunkSize   int32
	ActionBatch    int
	ActionThrottle time.Duration
}

func (p RunParams) withDefaults() RunParams {
	if p.FirstChannel == 0 {
		p.FirstChannel = DefaultFirstChannel
	}
	if p.LastChannel == 0 {
		p.LastChannel = DefaultLastChannel
	}
	if p.MinChunkSize == 0 {
		p.MinChunkSize = DefaultMinChunkSize
	}
	if p.ActionBatch == 0 {
		p.ActionBatch = DefaultActionBatch
	}
	if p.ActionThrottle == 0 {
		p.ActionThrottle = DefaultActionThrottle
	}
	return p
}

// Run opens one session: resolves the class-code table, creates a fresh
// ActionQueue and ChunkCache, and drives the stream for params.RunTime.
// It blocks until the run ends (normally or on a broken stream) and
// returns a rerrors.Deadline-kind error for the normal case. Run is not
// reentrant; a second concurrent call returns rerrors.ArgInvalid.
func (c *Client) Run(ctx context.Context, params RunParams) error {
	if !c.running.CompareAndSwap(false, true) {
		return rerrors.New(rerrors.ArgInvalid, "readuntil: a session is already running")
	}
	defer c.running.Store(false)

	params = params.withDefaults()

	var classMap map[int32]string
	if c.classificationSrc != nil {
		m, err := c.classificationSrc.ClassificationMap(ctx)
		if err != nil {
			return rerrors.Wrap(rerrors.StreamBroken, err)
		}
		classMap = m
	}

	cc, err := cache.NewChunkCache(c.cacheSize)
	if err != nil {
		return err
	}
	queue := actionqueue.New()
	cl := classifier.New(classMap, classifier.WithLogger(c.log))

	cfg := coordinator.Config{
		FirstChannel:   params.FirstChannel,
		LastChannel:    params.LastChannel,
		SampleType:     params.SampleType,
		MinChunkSize:   params.MinChunkSize,
		ActionBatch:    params.ActionBatch,
		ActionThrottle: params.ActionThrottle,
		FilterStrands:  c.filterStrands,
		OneChunk:       c.oneChunk,
		RunTime:        params.RunTime,
	}

	scOpts := []coordinator.Option{coordinator.WithLogger(c.log)}
	if c.onReport != nil {
		scOpts = append(scOpts, coordinator.WithOnIntervalReport(c.onReport))
	}
	sc := coordinator.New(cfg, cc, queue, cl, scOpts...)

	c.mu.Lock()
	c.cc = cc
	c.queue = queue
	c.sc = sc
	c.mu.Unlock()

	return sc.Run(ctx, c.dial, c.acquisitionSrc)
}

// IsRunning reports whether a session is currently active.
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// Reset ends the current session immediately, if one is running.
func (c *Client) Reset() {
	c.mu.Lock()
	sc := c.sc
	c.mu.Unlock()
	if sc != nil {
		sc.Reset()
	}
}

// QueueLength reports the number of pending, not-yet-sent actions.
func (c *Client) QueueLength() int {
	c.mu.Lock()
	q := c.queue
	c.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}

// MissedReads reports the ChunkCache's missed counter: reads that had
// one or more chunks enter the cache but were removed before ever being
// popped, either evicted by capacity pressure or overwritten by a chunk
// of a different read on the same channel. MissedChunks reports the
// same-channel-replacement counter: chunks overwritten by a later chunk
// belonging to the same read on the same channel, per spec.md §4.1/§5.
// Both are best-effort, lock-free reads.
func (c *Client) MissedReads() uint64 {
	c.mu.Lock()
	cc := c.cc
	c.mu.Unlock()
	if cc == nil {
		return 0
	}
	missed, _ := cc.PeekCounters()
	return missed
}

func (c *Client) MissedChunks() uint64 {
	c.mu.Lock()
	cc := c.cc
	c.mu.Unlock()
	if cc == nil {
		return 0
	}
	_, replaced := cc.PeekCounters()
	return replaced
}

// GetReadChunks pops up to batchSize chunks from the ChunkCache, newest
// or oldest first per newest, per spec.md §4.5.
func (c *Client) GetReadChunks(batchSize int, newest bool) []cache.Entry {
	c.mu.Lock()
	cc := c.cc
	c.mu.Unlock()
	if cc == nil {
		return nil
	}
	return cc.PopBatch(batchSize, newest)
}

// UnblockRead enqueues an unblock action for (channel, readNumber).
func (c *Client) UnblockRead(channel, readNumber int32) error {
	return c.enqueueAction(channel, readNumber, rpc.ActionUnblock)
}

// StopReceivingRead enqueues a stop-further-data action for
// (channel, readNumber).
func (c *Client) StopReceivingRead(channel, readNumber int32) error {
	return c.enqueueAction(channel, readNumber, rpc.ActionStopFurtherData)
}

func (c *Client) enqueueAction(channel, readNumber int32, kind rpc.ActionKind) error {
	c.mu.Lock()
	q := c.queue
	c.mu.Unlock()
	if q == nil {
		return rerrors.New(rerrors.ArgInvalid, "readuntil: no session is running")
	}
	q.Put(channel, readNumber, kind)
	return nil
}
