package engine

import (
	"context"
	"sync"

	"github.com/roach88/stakegov/internal/ir"
)

type reply struct {
	res Result
	err error
}

// request is a submitted invocation awaiting its turn in Run.
type request struct {
	ctx   context.Context
	inv   ir.Invocation
	reply chan reply
}

// requestQueue is an unbounded FIFO of requests. Enqueue is safe from any
// goroutine; one goroutine drains it.
type requestQueue struct {
	mu       sync.Mutex
	requests []*request
	closed   bool
	// signal holds at most one pending wakeup and is closed on Close.
	signal chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		requests: make([]*request, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue appends r. It reports false once the queue is closed.
func (q *requestQueue) Enqueue(r *request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front request without blocking.
func (q *requestQueue) TryDequeue() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil, false
	}
	r := q.requests[0]
	q.requests[0] = nil
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Wait returns a channel that fires when requests may be available.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close stops further enqueues and wakes the drainer. Requests still
// queued are returned so the caller can fail them.
func (q *requestQueue) Close() []*request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.signal)

	left := q.requests
	q.requests = nil
	return left
}
