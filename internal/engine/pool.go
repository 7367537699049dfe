// internal/engine/pool.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool runs blocking jobs off the caller's goroutine, at most size at a time.
// Completion is observed through the Future returned by Submit.
type Pool struct {
	logger *zap.Logger
	sem    *semaphore.Weighted
	size   int64
	wg     sync.WaitGroup

	// stateLock protects closed.
	stateLock sync.Mutex
	closed    bool
}

// NewPool creates a pool admitting size concurrent jobs.
func NewPool(size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Pool{
		logger: logger.Named("worker_pool"),
		sem:    semaphore.NewWeighted(int64(size)),
		size:   int64(size),
	}, nil
}

// Future holds the eventual result of one job.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the job has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the job finishes or ctx ends. Cancelling ctx does not
// stop the job itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on p. It blocks while the pool is full and returns an
// error if ctx ends first or the pool is closed. A panic in fn is reported
// through the future as an error.
func Submit[T any](ctx context.Context, p *Pool, name string, fn func(context.Context) (T, error)) (*Future[T], error) {
	p.stateLock.Lock()
	if p.closed {
		p.stateLock.Unlock()
		return nil, ErrPoolClosed
	}
	p.wg.Add(1)
	p.stateLock.Unlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return nil, fmt.Errorf("waiting for a worker slot: %w", err)
	}

	f := &Future[T]{done: make(chan struct{})}
	logger := p.logger.With(zap.String("job", name))
	logger.Debug("Job dispatched to worker.")

	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Job panicked.", zap.Any("panic", r))
				f.err = fmt.Errorf("job %s panicked: %v", name, r)
			}
		}()

		f.value, f.err = fn(ctx)
		if f.err != nil {
			logger.Warn("Job finished with error.", zap.Error(f.err))
			return
		}
		logger.Debug("Job finished.")
	}()

	return f, nil
}

// Close rejects new jobs and waits for running ones to finish.
func (p *Pool) Close() {
	p.stateLock.Lock()
	p.closed = true
	p.stateLock.Unlock()

	p.wg.Wait()
	p.logger.Debug("Worker pool stopped.")
}
