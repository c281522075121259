package engine

import "sync"

// jobQueue is an unbounded FIFO of job ids waiting for the worker.
//
// Producers (Run) may call Enqueue from any goroutine. The worker uses
// TryDequeue plus Wait so it can also select on its context.
type jobQueue struct {
	mu     sync.Mutex
	ids    []string
	closed bool
	signal chan struct{} // buffered, size 1; closed by Close
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		ids:    make([]string, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends id. Returns false once the queue is closed.
func (q *jobQueue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.ids = append(q.ids, id)

	// Coalesce wakeups.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest id without blocking.
func (q *jobQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	if len(q.ids) == 1 {
		q.ids = q.ids[:0]
	} else {
		q.ids = q.ids[1:]
	}
	return id, true
}

// Wait returns a channel that fires when ids may be available, and is
// closed when the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of waiting ids.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Closed reports whether Close has been called.
func (q *jobQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes every waiter.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
