// Package queue defines the contract for buffering incident reports between
// intake and the triage workers.
//
// Implementations may use channels or more advanced structures. The in-memory
// bounded queue is sufficient for a single-node deployment.
package queue

import (
	"context"
	"sync"

	"github.com/rescuemesh/engine/internal/domain/model"
	"github.com/rescuemesh/engine/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Report represents the payload type flowing through the queue.
type Report = model.IncidentReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report to the queue.
	// Returns false if the queue is full and the report was not enqueued.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns a channel that will receive reports as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Report

	// Len returns the current number of queued reports.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new reports can be enqueued and the dequeue channel
	// will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	reports    chan Report
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.reports = make(chan Report, q.bufferSize)

	metrics.UpdateIntakeQueueSize(0)

	return q
}

// Enqueue adds a report to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordReportDropped()
		metrics.RecordErrorByComponent("intake_queue", "closed")
		return false
	}

	if len(q.reports) >= q.capacity {
		metrics.RecordReportDropped()
		metrics.RecordErrorByComponent("intake_queue", "capacity_exceeded")
		return false
	}

	select {
	case q.reports <- r:
		metrics.UpdateIntakeQueueSize(len(q.reports))
		return true
	case <-ctx.Done():
		metrics.RecordReportDropped()
		metrics.RecordErrorByComponent("intake_queue", "context_cancelled")
		return false
	default:
		metrics.RecordReportDropped()
		metrics.RecordErrorByComponent("intake_queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive reports as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Report {
	dequeueChan := make(chan Report)
	go func() {
		defer close(dequeueChan)
		for report := range q.reports {
			select {
			case dequeueChan <- report:
				metrics.UpdateIntakeQueueSize(len(q.reports))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued reports.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.reports)
	metrics.UpdateIntakeQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.reports)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
