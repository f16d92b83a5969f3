// Package actionqueue implements the unbounded outbound FIFO described in
// spec.md §4.2: every UnblockRead/StopReceivingRead call enqueues an
// ActionRequest, which the stream coordinator's outbound pump drains in
// batches. There is no re-queueing on error — a request lives in the
// queue at most until the next flush.
package actionqueue

import (
	"sync"

	"github.com/google/uuid"

	"readuntil-client/rpc"
)

// ActionRequest is one pending request to the sequencer.
type ActionRequest struct {
	ActionID string
	Channel  int32
	Number   int32
	Kind     rpc.ActionKind
}

// ActionQueue is a concurrency-safe, unbounded FIFO of ActionRequest.
type ActionQueue struct {
	mu      sync.Mutex
	pending []ActionRequest
}

// New constructs an empty ActionQueue.
func New() *ActionQueue {
	return &ActionQueue{}
}

// Put enqueues a freshly-identified action request for (channel, number).
func (q *ActionQueue) Put(channel, number int32, kind rpc.ActionKind) ActionRequest {
	req := ActionRequest{
		ActionID: uuid.NewString(),
		Channel:  channel,
		Number:   number,
		Kind:     kind,
	}
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()
	return req
}

// TryGet removes and returns the oldest pending request, non-blocking.
// Reports false if the queue is empty.
func (q *ActionQueue) TryGet() (ActionRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return ActionRequest{}, false
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	return req, true
}

// Drain removes and returns up to max pending requests, in FIFO order,
// without blocking. Used by the coordinator's outbound pump to build
// one batched Actions message per iteration.
func (q *ActionQueue) Drain(max int) []ActionRequest {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	if max > len(q.pending) {
		max = len(q.pending)
	}
	out := make([]ActionRequest, max)
	copy(out, q.pending[:max])
	q.pending = q.pending[max:]
	return out
}

// Len reports the number of pending requests.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Reset discards all pending requests, for session end.
func (q *ActionQueue) Reset() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}
