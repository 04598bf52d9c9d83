package registry

import (
	"context"
	"sync"
)

// createJob is a background CreateSave request. The payload is encoded on the
// caller's goroutine, so data is a snapshot taken at submission time.
type createJob struct {
	ctx     context.Context
	data    []byte
	label   string
	pending *Pending
}

// jobQueue is a thread-safe unbounded FIFO of create jobs.
//
// The queue uses a channel for signaling so the worker can block without
// polling. Close wakes the worker by closing the signal channel.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []createJob
	closed bool
	signal chan struct{} // Signals job availability (buffered, size 1)
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]createJob, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j createJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, j)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front job without blocking.
func (q *jobQueue) TryDequeue() (createJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return createJob{}, false
	}

	j := q.jobs[0]
	// Nil out the slot so the payload can be collected
	q.jobs[0] = createJob{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that signals when jobs may be available.
// The channel is closed once the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Drained reports whether the queue is closed and empty.
func (q *jobQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// Close stops accepting jobs. Queued jobs remain available to TryDequeue.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
