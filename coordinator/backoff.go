package coordinator

import (
	"context"
	"time"
)

// backoff is a small doubling-delay helper for the inbound loop's single
// retry on a transient Recv error, adapted from the teacher's retry
// strategy for its upstream reconnect path.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{initial: initial, max: max, current: initial}
}

func (b *backoff) next() time.Duration {
	d := b.current
	if b.current < b.max {
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	}
	return d
}

// sleep waits for the next backoff interval or ctx cancellation,
// whichever comes first.
func (b *backoff) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(b.next()):
	}
}
