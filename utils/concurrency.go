package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool runs jobs on a bounded number of goroutines, spacing job starts
// by a minimum interval, and remembers the first error any job returned.
type WorkerPool struct {
	limiter   *rate.Limiter
	semaphore chan struct{}
	wg        sync.WaitGroup
	errOnce   sync.Once
	firstErr  error
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A rateLimitMs of zero or less disables spacing.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	limit := rate.Inf
	if rateLimitMs > 0 {
		limit = rate.Every(time.Duration(rateLimitMs) * time.Millisecond)
	}
	return &WorkerPool{
		limiter:   rate.NewLimiter(limit, 1),
		semaphore: make(chan struct{}, max(maxWorkers, 1)),
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all workers are busy.
// A job still waiting for its start slot when ctx ends is not run; ctx's error is recorded instead.
func (wp *WorkerPool) Submit(ctx context.Context, job func() error) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.limiter.Wait(ctx); err != nil {
			wp.recordErr(err)
			return
		}
		if err := job(); err != nil {
			wp.recordErr(err)
		}
	}()
}

// Wait blocks until all submitted jobs have completed and returns the first job error.
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	return wp.firstErr
}

func (wp *WorkerPool) recordErr(err error) {
	wp.errOnce.Do(func() { wp.firstErr = err })
}

// KeySet is a thread-safe set of string keys.
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has been added.
func (s *KeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
