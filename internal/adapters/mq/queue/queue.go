// Package queue carries candidate events from producers to the single
// ingestion loop.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Producer sources.
const (
	SourceHTTP    = "http"
	SourcePoller  = "poller"
	SourceConsole = "console"
	SourceFile    = "file"
)

// Candidate is an event that has not been validated yet. Exactly one of
// Payload and Event is expected to be set; Event is used by producers that
// already build typed events.
type Candidate struct {
	ID       string
	Source   string
	Payload  map[string]any
	Event    *model.Event
	Received time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a candidate. It returns ErrFull or ErrClosed instead of
	// blocking.
	Enqueue(ctx context.Context, c Candidate) error

	// Dequeue returns the channel candidates arrive on, in enqueue order.
	// It is closed after Close once drained.
	Dequeue() <-chan Candidate

	Len() int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Candidate
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Candidate, q.capacity)

	metrics.UpdateQueueMetrics(0, q.capacity)
	return q
}

// Enqueue adds c to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Candidate) error { //nolint:gocritic // hugeParam: Candidate is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}
	if c.Received.IsZero() {
		c.Received = time.Now()
	}

	select {
	case q.items <- c:
		metrics.UpdateQueueMetrics(len(q.items), q.capacity)
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Candidate {
	return q.items
}

// Len returns the number of pending candidates.
func (q *InMemoryQueue) Len() int {
	size := len(q.items)
	metrics.UpdateQueueMetrics(size, q.capacity)
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting candidates. Pending ones remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
