// Package parallel provides a small generic worker pool.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the number of concurrent workers. Defaults to
	// min(NumCPU, 8).
	MaxWorkers int

	// Timeout bounds the whole Execute call. Zero means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a copy of the config with n workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy of the config with the given timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// TaskResult holds the outcome of one task.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool executes independent tasks concurrently. The zero worker
// count falls back to the default configuration.
type WorkerPool[T any, R any] struct {
	config PoolConfig
}

// NewWorkerPool creates a worker pool.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc runs fn over all inputs in parallel. Results keep the
// input order. A cancelled context leaves unstarted entries with the
// context's error.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(inputs))
	for i := range results {
		results[i].Input = inputs[i]
		results[i].Error = ctx.Err()
	}

	indexCh := make(chan int)
	numWorkers := p.config.MaxWorkers
	if numWorkers > len(inputs) {
		numWorkers = len(inputs)
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				start := time.Now()
				result, err := fn(ctx, inputs[idx])
				results[idx] = TaskResult[T, R]{
					Input:    inputs[idx],
					Result:   result,
					Error:    err,
					Duration: time.Since(start),
				}
			}
		}()
	}

	for i := range inputs {
		select {
		case <-ctx.Done():
			for j := i; j < len(inputs); j++ {
				results[j].Error = ctx.Err()
			}
			close(indexCh)
			wg.Wait()
			return results
		case indexCh <- i:
		}
	}
	close(indexCh)
	wg.Wait()
	return results
}

// FirstError returns the first non-nil error among results, or nil.
func FirstError[T any, R any](results []TaskResult[T, R]) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}
