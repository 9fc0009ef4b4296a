// Package queue provides the bounded, thread-safe queues connecting the
// capture loop, the recognition worker, and the renderer.
//
// Pushes never block: when a queue is full the new item is dropped, because
// a live stream values recency over completeness. Pops block on the channel
// returned by Dequeue, or poll with TryDequeue. Close is the termination
// signal: consumers drain any buffered items before observing the closed
// channel, so nothing queued ahead of a Close is lost.
package queue

import (
	"context"
	"sync"

	"github.com/okian/presence/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 2
	defaultName     = "queue"
)

// Queue is a bounded in-memory queue of T backed by a buffered channel.
type Queue[T any] struct {
	items    chan T
	capacity int
	name     string

	mu     sync.RWMutex
	closed bool
}

// New creates a queue with configuration options.
func New[T any](opts ...Option) *Queue[T] {
	cfg := config{
		capacity: defaultCapacity,
		name:     defaultName,
	}

	// Apply all options
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &Queue[T]{
		items:    make(chan T, cfg.capacity),
		capacity: cfg.capacity,
		name:     cfg.name,
	}

	metrics.UpdateQueueCapacity(q.name, q.capacity)
	metrics.UpdateQueueSize(q.name, 0)
	metrics.UpdateQueueUtilization(q.name, 0.0)

	return q
}

// Enqueue adds an item without blocking. Returns false when the queue is
// full (item dropped) or closed.
func (q *Queue[T]) Enqueue(ctx context.Context, item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDrop(q.name)
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue(q.name)
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueDrop(q.name)
		return false
	default:
		// Full: prefer dropping the new item over blocking the producer.
		metrics.RecordQueueDrop(q.name)
		return false
	}
}

// Dequeue returns the channel items arrive on. The channel is closed after
// Close once all buffered items have been received.
func (q *Queue[T]) Dequeue() <-chan T {
	return q.items
}

// TryDequeue pops one item without blocking. Returns false when the queue
// is empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	select {
	case item, ok := <-q.items:
		if ok {
			metrics.RecordQueueDequeue(q.name)
			q.observe()
		}
		return item, ok
	default:
		var zero T
		return zero, false
	}
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the bounded capacity.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Close shuts the queue down. Buffered items remain consumable; after they
// drain, the dequeue channel reports closed.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *Queue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// observe refreshes size and utilization gauges.
func (q *Queue[T]) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(q.name, size)
	metrics.UpdateQueueUtilization(q.name, float64(size)/float64(q.capacity))
}
