package actionqueue

import (
	"sync"
	"testing"

	"readuntil-client/rpc"
)

func TestActionQueue_FIFOOrder(t *testing.T) {
	q := New()
	q.Put(1, 1, rpc.ActionUnblock)
	q.Put(2, 1, rpc.ActionStopFurtherData)
	q.Put(3, 1, rpc.ActionUnblock)

	first, ok := q.TryGet()
	if !ok || first.Channel != 1 {
		t.Fatalf("got %+v ok=%v, want channel=1", first, ok)
	}
	second, ok := q.TryGet()
	if !ok || second.Channel != 2 {
		t.Fatalf("got %+v ok=%v, want channel=2", second, ok)
	}
}

func TestActionQueue_TryGet_EmptyReportsFalse(t *testing.T) {
	q := New()
	_, ok := q.TryGet()
	if ok {
		t.Fatal("expected ok=false on empty queue")
	}
}

func TestActionQueue_UniqueActionIDs(t *testing.T) {
	q := New()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		req := q.Put(int32(i), 1, rpc.ActionUnblock)
		if seen[req.ActionID] {
			t.Fatalf("duplicate action id %q", req.ActionID)
		}
		seen[req.ActionID] = true
	}
}

func TestActionQueue_Drain_Batching(t *testing.T) {
	// scenario 5 (spec.md §8): 1500 queued actions, batches of 1000,
	// flushed as 1000 then 500, in order.
	q := New()
	for i := int32(0); i < 1500; i++ {
		q.Put(i, 1, rpc.ActionUnblock)
	}

	first := q.Drain(1000)
	if len(first) != 1000 {
		t.Fatalf("len(first) = %d, want 1000", len(first))
	}
	second := q.Drain(1000)
	if len(second) != 500 {
		t.Fatalf("len(second) = %d, want 500", len(second))
	}
	if first[0].Channel != 0 || second[0].Channel != 1000 {
		t.Fatalf("batches not in FIFO order: first[0]=%d second[0]=%d", first[0].Channel, second[0].Channel)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after draining all", q.Len())
	}
}

func TestActionQueue_Drain_NeverBlocksOnEmpty(t *testing.T) {
	q := New()
	got := q.Drain(100)
	if got != nil {
		t.Fatalf("expected nil batch, got %v", got)
	}
}

func TestActionQueue_Reset(t *testing.T) {
	q := New()
	q.Put(1, 1, rpc.ActionUnblock)
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after Reset, want 0", q.Len())
	}
}

func TestActionQueue_ConcurrentPuts(t *testing.T) {
	q := New()
	const n = 2000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Put(int32(i), 1, rpc.ActionUnblock)
		}(i)
	}
	wg.Wait()
	if q.Len() != n {
		t.Fatalf("Len() = %d, want %d", q.Len(), n)
	}
}
