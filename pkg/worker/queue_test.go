package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](3)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
	for want := 1; want <= 3; want++ {
		got, ok := q.Poll()
		if !ok || got != want {
			t.Errorf("Poll: got (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := q.Poll(); ok {
		t.Error("Poll on empty queue should report false")
	}
}

func TestQueue_PutBlocksUntilCancelled(t *testing.T) {
	q := NewQueue[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Put(ctx, 1); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	start := time.Now()
	err := q.Put(ctx, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Put on a full queue returned without blocking")
	}
}

func TestQueue_OfferDropsWhenFull(t *testing.T) {
	q := NewQueue[string](2)
	q.Offer("a")
	q.Offer("b")
	if q.Offer("c") {
		t.Error("Offer on full queue should fail")
	}
	if got := q.Dropped(); got != 1 {
		t.Errorf("Dropped: got %d, want 1", got)
	}
	if q.Len() != 2 || q.Cap() != 2 {
		t.Errorf("Len/Cap: got %d/%d", q.Len(), q.Cap())
	}
}

func TestDrain(t *testing.T) {
	q := NewQueue[int](5)
	for i := 0; i < 4; i++ {
		q.Offer(i)
	}

	var seen []int
	n, err := Drain(q, func(v int) error {
		seen = append(seen, v)
		return nil
	})
	if err != nil || n != 4 {
		t.Fatalf("Drain: n=%d err=%v", n, err)
	}
	for i, v := range seen {
		if v != i {
			t.Errorf("order: seen[%d]=%d", i, v)
		}
	}

	n, _ = Drain(q, func(int) error { return nil })
	if n != 0 {
		t.Errorf("second drain should be empty, got %d", n)
	}

	var nilQueue *Queue[int]
	if n, err := Drain(nilQueue, func(int) error { return nil }); n != 0 || err != nil {
		t.Errorf("nil queue drain: n=%d err=%v", n, err)
	}
}

func TestDrain_StopsOnError(t *testing.T) {
	q := NewQueue[int](3)
	q.Offer(1)
	q.Offer(2)
	q.Offer(3)

	bad := errors.New("bad record")
	n, err := Drain(q, func(v int) error {
		if v == 2 {
			return bad
		}
		return nil
	})
	if !errors.Is(err, bad) || n != 2 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
	if q.Len() != 1 {
		t.Errorf("remaining: got %d, want 1", q.Len())
	}
}
