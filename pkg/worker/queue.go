package worker

import (
	"context"
	"sync/atomic"
)

// Queue is a bounded FIFO with one producer and one consumer.
// A full queue blocks Put, which throttles a fast producer to the pace of
// its consumer. Offer is the best-effort alternative for high-rate data.
type Queue[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most size items (minimum 1).
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Put enqueues v, blocking while the queue is full or until ctx is done.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Offer enqueues v without blocking. When the queue is full the item is
// discarded, counted, and false is returned.
func (q *Queue[T]) Offer(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Get dequeues the oldest item, blocking until one arrives or ctx is done.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Poll dequeues the oldest item if one is buffered.
func (q *Queue[T]) Poll() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the queue bound.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Dropped returns how many items Offer discarded.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

// Drain hands every currently buffered item to fn, oldest first, without
// blocking. It stops early if fn fails. A nil queue drains nothing.
func Drain[T any](q *Queue[T], fn func(T) error) (int, error) {
	if q == nil {
		return 0, nil
	}
	n := 0
	for {
		v, ok := q.Poll()
		if !ok {
			return n, nil
		}
		n++
		if err := fn(v); err != nil {
			return n, err
		}
	}
}
