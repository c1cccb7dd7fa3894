package publisher

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"StockPulse/internal/model"
)

var (
	// ErrQueueFull is returned when an update is dropped because the
	// background publisher is behind.
	ErrQueueFull = errors.New("publish queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("publisher closed")
)

// AsyncPublisher hands updates to a single background goroutine so callers
// never wait on the broker. Updates are dropped when the queue is full.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	queue   chan func(ctx context.Context) error
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncPublisher wraps next with a queue of size updates. Each publish is
// bounded by timeout.
func NewAsyncPublisher(next Publisher, size int, timeout time.Duration) *AsyncPublisher {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	a := &AsyncPublisher{
		next:    next,
		timeout: timeout,
		queue:   make(chan func(ctx context.Context) error, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for job := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := job(ctx); err != nil {
			log.Printf("[WARN] publish failed: %v", err)
		}
		cancel()
	}
}

func (a *AsyncPublisher) enqueue(job func(ctx context.Context) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// PublishQuote queues q. It never blocks.
func (a *AsyncPublisher) PublishQuote(_ context.Context, q *model.Quote) error {
	return a.enqueue(func(ctx context.Context) error { return a.next.PublishQuote(ctx, q) })
}

// PublishPrediction queues p. It never blocks.
func (a *AsyncPublisher) PublishPrediction(_ context.Context, p *model.Prediction) error {
	return a.enqueue(func(ctx context.Context) error { return a.next.PublishPrediction(ctx, p) })
}

// Dropped returns how many updates were discarded because the queue was full.
func (a *AsyncPublisher) Dropped() int64 { return a.dropped.Load() }

// Close drains queued updates, then closes the wrapped publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
