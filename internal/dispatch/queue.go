// Package dispatch runs fire-and-forget tasks (outbound email, status
// telemetry) on a background worker so request handling never blocks on
// delivery. Failures are logged, never surfaced to callers.
package dispatch

import (
	"sync"

	"go.uber.org/zap"
)

type task struct {
	name string
	fn   func() error
}

// Submitter is the producer side of the queue.
type Submitter interface {
	Submit(name string, fn func() error)
}

type Queue struct {
	tasks  chan task
	log    *zap.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewQueue starts worker goroutines draining a bounded task buffer.
func NewQueue(log *zap.Logger, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		tasks: make(chan task, buffer),
		log:   log,
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		if err := t.fn(); err != nil {
			q.log.Error("background task failed", zap.String("task", t.name), zap.Error(err))
		}
	}
}

// Submit enqueues a task. When the buffer is full or the queue is
// closed the task is dropped with a log entry; best effort is the
// contract here.
func (q *Queue) Submit(name string, fn func() error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.log.Warn("background task dropped, queue closed", zap.String("task", name))
		return
	}
	select {
	case q.tasks <- task{name: name, fn: fn}:
	default:
		q.log.Warn("background task dropped, queue full", zap.String("task", name))
	}
}

// Close stops accepting tasks and waits for in-flight ones.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
