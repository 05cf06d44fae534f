// Package queue implements the unbounded delivery queue joining the sessions
// that produce messages for a user to the writer that serializes them.
package queue

import "sync"

// Queue is an unbounded multi-producer single-consumer FIFO of lines.
// Push never blocks, so a slow consumer cannot stall a producer.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	items     []string
	closed    bool
	highWater int
}

// New creates an empty Queue.
func New() *Queue {
	q := new(Queue)
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues msg and returns true, or returns false if the queue has been
// closed.
func (q *Queue) Push(msg string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, msg)
	if len(q.items) > q.highWater {
		q.highWater = len(q.items)
	}
	q.cond.Signal()
	return true
}

// Next blocks until an item is available and returns it.  Once the queue is
// closed and drained, Next returns ("", false).
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

// Close marks the queue closed and wakes the consumer.  Items already queued
// remain deliverable; further pushes fail.  Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// HighWater returns the largest queue depth observed.
func (q *Queue) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}
