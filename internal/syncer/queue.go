// Package syncer replicates scoped record collections to a remote store on a
// best-effort basis. Pushes are fire-and-forget, pulls merge into local
// storage in the background; nothing here ever blocks a caller or surfaces a
// network error. Local storage remains the durable source of truth.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Queue runs sync tasks off the caller's path. It exists so pending sync
// work is explicit — tests flush it deterministically instead of racing ad
// hoc timers.
type Queue struct {
	logger *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
	closed bool
}

// NewQueue creates a running task queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base, cancel := context.WithCancel(context.Background())
	return &Queue{logger: logger, base: base, cancel: cancel}
}

// Submit schedules fn to run with the given timeout. Returns immediately.
// After Close, submissions are dropped.
func (q *Queue) Submit(name string, timeout time.Duration, fn func(ctx context.Context)) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(q.base, timeout)
		defer cancel()
		fn(ctx)
		q.logger.Debug("sync task finished", "task", name)
	}()
}

// Flush blocks until all submitted tasks have finished.
func (q *Queue) Flush() {
	q.wg.Wait()
}

// Close cancels in-flight tasks and stops accepting new ones.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
}
