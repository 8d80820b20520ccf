// Package queue buffers activity entries between the scheduler and sinks
// that are too slow to call inline.
package queue

import (
	"context"
	"sync"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Drop reasons reported to metrics.
const (
	dropClosed    = "closed"
	dropFull      = "full"
	dropCancelled = "cancelled"
)

// Entry is the payload flowing through the queue.
type Entry = activity.Entry

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an entry. It never blocks; a full or closed queue
	// returns ErrFull or ErrClosed.
	Enqueue(ctx context.Context, e Entry) error

	// Dequeue returns a channel that receives entries until the queue is
	// closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the number of buffered entries.
	Len() int

	// Close stops intake. Buffered entries can still be dequeued.
	Close() error

	// IsClosed returns true once Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)
	metrics.UpdateDeliveryQueueDepth(0)
	return q
}

// Enqueue adds an entry to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: Entry is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordDeliveryDropped(dropClosed)
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordDeliveryDropped(dropCancelled)
		return err
	}

	select {
	case q.entries <- e:
		metrics.RecordDeliveryEnqueued()
		metrics.UpdateDeliveryQueueDepth(len(q.entries))
		return nil
	default:
		metrics.RecordDeliveryDropped(dropFull)
		metrics.RecordErrorByComponent("delivery_queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive entries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-q.entries:
				if !ok {
					return
				}
				metrics.UpdateDeliveryQueueDepth(len(q.entries))
				select {
				case out <- e:
				case <-ctx.Done():
					metrics.RecordDeliveryDropped(dropCancelled)
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of buffered entries.
func (q *InMemoryQueue) Len() int {
	return len(q.entries)
}

// Close stops intake. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
