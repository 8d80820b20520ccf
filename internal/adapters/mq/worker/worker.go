// Package worker delivers buffered activity entries to a downstream sink.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/wardflow/internal/adapters/activity"
	"github.com/okian/wardflow/internal/adapters/mq/queue"
	"github.com/okian/wardflow/pkg/logger"
	"github.com/okian/wardflow/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount     = 2
	defaultDeliveryTimeout = 5 * time.Second
	dropSinkError          = "sink_error"
)

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Entry
}

// Worker delivers entries from a queue to a sink.
type Worker struct {
	queue   Queue
	sink    activity.Sink
	name    string
	timeout time.Duration

	done chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, sink activity.Sink, opts ...Option) *Worker {
	w := &Worker{
		queue:   q,
		sink:    sink,
		name:    "worker",
		timeout: defaultDeliveryTimeout,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run delivers entries until the queue is drained and closed or ctx ends.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	for e := range w.queue.Dequeue(ctx) {
		if err := w.deliver(ctx, e); err != nil {
			w.logger.Error(ctx, "activity delivery failed",
				logger.String("entry_id", e.ID),
				logger.String("action", e.Action),
				logger.Error(err))
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) deliver(ctx context.Context, e queue.Entry) error { //nolint:gocritic // hugeParam: Entry is passed by value for channel semantics
	start := time.Now()
	// Delivery outlives the request that produced the entry.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	err := w.sink.Append(dctx, e)
	metrics.RecordDeliveryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordDeliveryDropped(dropSinkError)
		metrics.RecordActivityError()
		metrics.RecordErrorByComponent("delivery", "append")
		return fmt.Errorf("append %s: %w", e.ID, err)
	}
	return nil
}

// Pool runs several workers over one queue. It is itself an activity.Sink:
// Append only enqueues, so a slow sink never holds up the caller.
type Pool struct {
	queue   *queue.InMemoryQueue
	workers []*Worker

	startOnce sync.Once
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers delivering to sink.
func NewPool(workerCount int, q *queue.InMemoryQueue, sink activity.Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		queue:   q,
		workers: make([]*Worker, workerCount),
		logger:  logger.Named("delivery-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("delivery-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewWorker(q, sink, wopts...)
	}
	return p
}

// Start launches the workers. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
	})
}

// Append implements activity.Sink by enqueueing e.
func (p *Pool) Append(ctx context.Context, e activity.Entry) error {
	return p.queue.Enqueue(ctx, e)
}

// Shutdown stops intake and waits for buffered entries to be delivered.
// Workers must have been started.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "delivery worker shutdown timed out",
				logger.Int("worker_id", i),
				logger.Int("pending", p.queue.Len()))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
