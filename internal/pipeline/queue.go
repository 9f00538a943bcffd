// Package pipeline provides the unbounded FIFO queues that carry assertion
// batches, render commands and events between goroutines.
package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Receive once a closed queue is drained.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO. Send never blocks. Any number of goroutines may
// send; receivers see values in send order.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// ready holds one token while items is non-empty or the queue is closed.
	ready chan struct{}
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Send appends v. It reports false if the queue is closed.
func (q *Queue[T]) Send(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	q.signal()
	return true
}

// TryReceive pops the oldest value without blocking.
func (q *Queue[T]) TryReceive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

// Receive blocks until a value is available, the queue is closed and drained,
// or ctx is done.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		v, ok := q.pop()
		closed := q.closed
		q.mu.Unlock()
		if ok {
			return v, nil
		}
		if closed {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.ready:
		}
	}
}

// Close stops further sends. Values already queued can still be received.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.signal()
	}
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.signal()
	}
	return v, true
}

// signal must be called with mu held.
func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
