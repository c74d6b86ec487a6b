package planner

import "sync"

// writeQueue serializes fire-and-forget persistence writes on a single
// background goroutine. Mutations commit to memory synchronously and hand
// the durable write to the queue; because all jobs drain in FIFO order,
// writes for the same record can never be reordered against each other.
// Job errors are logged and swallowed: the in-memory model stays the
// source of truth until the next reload.
type writeQueue struct {
	jobs      chan queueJob
	stopped   chan struct{}
	logger    Logger
	closeOnce sync.Once
}

type queueJob struct {
	op   string
	fn   func() error
	done chan struct{} // non-nil for flush markers
}

const writeQueueDepth = 128

func newWriteQueue(logger Logger) *writeQueue {
	q := &writeQueue{
		jobs:    make(chan queueJob, writeQueueDepth),
		stopped: make(chan struct{}),
		logger:  logger,
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	for job := range q.jobs {
		if job.fn != nil {
			if err := job.fn(); err != nil {
				q.logger.Error("persistence write failed", "op", job.op, "error", err)
			}
		}
		if job.done != nil {
			close(job.done)
		}
	}
	close(q.stopped)
}

// enqueue hands a write to the background goroutine. The closure must
// capture snapshots of any records, not live pointers the caller keeps
// mutating.
func (q *writeQueue) enqueue(op string, fn func() error) {
	q.jobs <- queueJob{op: op, fn: fn}
}

// flush blocks until every previously enqueued write has completed.
// The join point exists for deterministic tests, for reads that must
// observe pending writes, and for shutdown.
func (q *writeQueue) flush() {
	done := make(chan struct{})
	q.jobs <- queueJob{op: "flush", done: done}
	<-done
}

// close drains the queue and stops the background goroutine.
// The queue must not be used after close.
func (q *writeQueue) close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	<-q.stopped
}
