// Package coordinator drives one bidirectional sequencer stream session:
// it emits the setup message, pumps queued actions outbound in throttled
// batches, and applies the inbound filter/one-chunk/cache-write policy to
// every incoming read chunk, per spec.md §4.4. It is grounded on the
// teacher's buffer coordinator (an atomic running flag guarding a single
// session's lifetime, reset on close) and on the two-goroutine send/recv
// split of joeycumines-go-utilpkg's fangrpcstream, including its pattern
// of cancelling a privately-held context to tear the other half down.
package coordinator

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"readuntil-client/actionqueue"
	"readuntil-client/cache"
	"readuntil-client/classifier"
	"readuntil-client/internal/safemap"
	"readuntil-client/logger"
	"readuntil-client/rerrors"
	"readuntil-client/rpc"
)

// StreamCoordinator owns exactly one stream session at a time. It does
// not own the ActionQueue's or ChunkCache's lifetime across sessions —
// the Client façade constructs fresh ones per Run and hands them in —
// but it does reset the queue at the end of every session, per spec.md's
// lifecycle note that a broken or finished stream clears pending actions.
type StreamCoordinator struct {
	cfg        Config
	cache      *cache.ChunkCache
	queue      *actionqueue.ActionQueue
	classifier *classifier.Classifier
	log        logger.Logger
	onReport   func(IntervalReport)

	running atomic.Bool

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	intervalMu               sync.Mutex
	intervalReadCount        uint64
	intervalSamplesBehindSum int64
	intervalRawBytesSum      uint64
	lastIntervalAt           time.Time
	responseOutcomes         map[int32]uint64

	uniqueReads *safemap.Set[string]
}

// New constructs a StreamCoordinator for one session. cache and queue are
// owned by the caller for the session's duration; classifier may be nil,
// in which case every chunk is treated as not strand-like.
func New(cfg Config, cc *cache.ChunkCache, queue *actionqueue.ActionQueue, cl *classifier.Classifier, opts ...Option) *StreamCoordinator {
	sc := &StreamCoordinator{
		cfg:              cfg,
		cache:            cc,
		queue:            queue,
		classifier:       cl,
		log:              logger.Default,
		responseOutcomes: make(map[int32]uint64),
		uniqueReads:      safemap.NewSet[string](),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// IsRunning reports whether a session is currently active.
func (sc *StreamCoordinator) IsRunning() bool {
	return sc.running.Load()
}

// Reset cancels the in-flight session's inbound half immediately, if one
// is running. It is a no-op otherwise.
func (sc *StreamCoordinator) Reset() {
	sc.cancelMu.Lock()
	cancel := sc.cancel
	sc.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run opens a stream via dial, drives it for cfg.RunTime, and returns
// when the run time elapses, the stream breaks or ends, or ctx is
// cancelled. A rerrors.Deadline-kind error means normal completion; nil
// means the session was cancelled (Reset or ctx) or the sequencer ended
// the stream; an rerrors.ArgInvalid-kind error means a session was
// already running; any other non-nil error means the stream broke
// (spec.md §7's STREAM_BROKEN).
func (sc *StreamCoordinator) Run(ctx context.Context, dial rpc.Dial, acq rpc.AcquisitionSource) error {
	if !sc.running.CompareAndSwap(false, true) {
		return rerrors.New(rerrors.ArgInvalid, "coordinator: session already running")
	}
	defer sc.running.Store(false)
	defer sc.queue.Reset()

	runCtx, cancel := context.WithCancel(ctx)
	sc.cancelMu.Lock()
	sc.cancel = cancel
	sc.cancelMu.Unlock()
	defer func() {
		sc.cancelMu.Lock()
		sc.cancel = nil
		sc.cancelMu.Unlock()
		cancel()
	}()

	sc.intervalMu.Lock()
	sc.lastIntervalAt = time.Now()
	sc.intervalMu.Unlock()

	client, err := dial(runCtx)
	if err != nil {
		return rerrors.Wrap(rerrors.StreamBroken, err)
	}

	if err := sc.sendSetup(client); err != nil {
		return rerrors.Wrap(rerrors.StreamBroken, err)
	}

	deadline := time.Now().Add(sc.cfg.RunTime)

	var wg sync.WaitGroup
	var outErr, inErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		outErr = sc.outboundLoop(runCtx, client, deadline)
		cancel()
	}()
	go func() {
		defer wg.Done()
		inErr = sc.inboundLoop(runCtx, client, acq)
		cancel()
	}()
	wg.Wait()

	if outErr != nil && !rerrors.Is(outErr, rerrors.Deadline) {
		return outErr
	}
	if inErr != nil {
		return inErr
	}
	return outErr
}

func (sc *StreamCoordinator) sendSetup(client rpc.SequencerClient) error {
	if sc.cfg.clampMinChunkSize() {
		sc.log.Warnf("coordinator: requested min_chunk_size exceeds %d, clamping", AllowedMinChunkSize)
	}
	setup := &rpc.StreamSetup{
		FirstChannel: sc.cfg.FirstChannel,
		LastChannel:  sc.cfg.LastChannel,
		SampleType:   sc.cfg.SampleType,
		MinChunkSize: sc.cfg.MinChunkSize,
	}
	return client.Send(&rpc.OutboundMessage{Setup: setup})
}

// outboundLoop paces batched action flushes at cfg.ActionThrottle using a
// token-bucket limiter: each iteration waits for a token (i.e. for the
// throttle interval to elapse since the last flush attempt) before
// draining and sending the next batch. It returns a rerrors.Deadline
// error when cfg.RunTime elapses, or a rerrors.StreamBroken error on a
// send failure.
func (sc *StreamCoordinator) outboundLoop(ctx context.Context, client rpc.SequencerClient, deadline time.Time) error {
	deadlineCtx, cancelDeadline := context.WithDeadline(ctx, deadline)
	defer cancelDeadline()

	limiter := rate.NewLimiter(rate.Every(sc.cfg.ActionThrottle), 1)

	for {
		if err := limiter.Wait(deadlineCtx); err != nil {
			_ = client.CloseSend()
			if ctx.Err() != nil {
				return nil
			}
			return rerrors.New(rerrors.Deadline, "coordinator: run_time elapsed")
		}

		batch := sc.queue.Drain(sc.cfg.ActionBatch)
		if len(batch) == 0 {
			continue
		}
		actions := make([]rpc.Action, len(batch))
		for i, req := range batch {
			actions[i] = rpc.Action{
				ActionID: req.ActionID,
				Channel:  req.Channel,
				Number:   req.Number,
				Kind:     req.Kind,
			}
		}
		if err := client.Send(&rpc.OutboundMessage{Actions: &rpc.Actions{Actions: actions}}); err != nil {
			return rerrors.Wrap(rerrors.StreamBroken, err)
		}
	}
}

// inboundLoop receives messages until the stream ends (io.EOF), runCtx is
// cancelled, or Recv fails twice in a row. Errors are not classified: the
// first failure after a successful receive is retried once after a short
// backoff, and a second consecutive failure is reported as STREAM_BROKEN,
// since the supplementary reconnect policy this client carries is a
// single-retry, not a full resubscribe.
func (sc *StreamCoordinator) inboundLoop(ctx context.Context, client rpc.SequencerClient, acq rpc.AcquisitionSource) error {
	bo := newBackoff(50*time.Millisecond, 2*time.Second)
	retried := false

	for {
		msg, err := client.Recv()
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			if !retried {
				retried = true
				sc.log.Warnf("coordinator: transient inbound error, retrying once: %v", err)
				bo.sleep(ctx)
				continue
			}
			return rerrors.Wrap(rerrors.StreamBroken, err)
		}
		retried = false
		sc.processInbound(ctx, msg, acq)
	}
}

func (sc *StreamCoordinator) processInbound(ctx context.Context, msg *rpc.InboundMessage, acq rpc.AcquisitionSource) {
	for _, ar := range msg.ActionResponses {
		sc.recordOutcome(ar.Outcome)
	}

	var acquired uint64
	if acq != nil && len(msg.Channels) > 0 {
		if a, _, err := acq.AcquisitionProgress(ctx); err != nil {
			sc.log.Debugf("coordinator: acquisition progress lookup failed: %v", err)
		} else {
			acquired = a
		}
	}

	for channel, rd := range msg.Channels {
		chunk := cache.NewChunk(channel, rd.Number, rd.ID, rd.ChunkStartSample, rd.RawData, rd.ChunkClassifications)
		chunk.Median = rd.Median
		chunk.MedianBefore = rd.MedianBefore

		if sc.cfg.OneChunk {
			sc.queue.Put(channel, rd.Number, rpc.ActionStopFurtherData)
		}

		strandLike := sc.classifier != nil && sc.classifier.IsStrandLike(rd.ChunkClassifications)
		if !sc.cfg.FilterStrands || strandLike {
			sc.cache.Put(channel, chunk)
		} else {
			chunk.Release()
		}

		sc.uniqueReads.Add(rd.ID)
		sc.addIntervalSample(int64(acquired)-int64(rd.ChunkStartSample), len(rd.RawData))
	}

	sc.maybeEmitInterval()
}

func (sc *StreamCoordinator) recordOutcome(outcome int32) {
	sc.intervalMu.Lock()
	sc.responseOutcomes[outcome]++
	sc.intervalMu.Unlock()
}

func (sc *StreamCoordinator) addIntervalSample(samplesBehind int64, rawBytes int) {
	sc.intervalMu.Lock()
	sc.intervalReadCount++
	sc.intervalSamplesBehindSum += samplesBehind
	sc.intervalRawBytesSum += uint64(rawBytes)
	sc.intervalMu.Unlock()
}

func (sc *StreamCoordinator) maybeEmitInterval() {
	sc.intervalMu.Lock()
	now := time.Now()
	if now.Sub(sc.lastIntervalAt) < intervalPeriod {
		sc.intervalMu.Unlock()
		return
	}
	readCount := sc.intervalReadCount
	samplesBehindSum := sc.intervalSamplesBehindSum
	rawBytesSum := sc.intervalRawBytesSum
	sc.intervalReadCount = 0
	sc.intervalSamplesBehindSum = 0
	sc.intervalRawBytesSum = 0
	sc.lastIntervalAt = now
	outcomes := make(map[int32]uint64, len(sc.responseOutcomes))
	for k, v := range sc.responseOutcomes {
		outcomes[k] = v
	}
	sc.intervalMu.Unlock()

	var avgSamplesBehind float64
	if readCount > 0 {
		avgSamplesBehind = float64(samplesBehindSum) / float64(readCount)
	}
	missed, replaced := sc.cache.PeekCounters()

	report := IntervalReport{
		UniqueReads:      sc.uniqueReads.Len(),
		AvgSamplesBehind: avgSamplesBehind,
		RawBytesMB:       float64(rawBytesSum) / (1024 * 1024),
		CacheLen:         sc.cache.Len(),
		Missed:           missed,
		Replaced:         replaced,
		ResponseOutcomes: outcomes,
	}

	sc.log.Logf("coordinator: reads=%d avg_samples_behind=%.1f raw_mb=%.2f cache_len=%d missed=%d replaced=%d",
		readCount, report.AvgSamplesBehind, report.RawBytesMB, report.CacheLen, report.Missed, report.Replaced)

	if sc.onReport != nil {
		sc.onReport(report)
	}
}
