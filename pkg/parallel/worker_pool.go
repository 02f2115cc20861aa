// Package parallel provides generic fan-out helpers for running many
// measurements concurrently.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// Pool Configuration
// ============================================================================

// PoolConfig configures worker pool behavior. The With* methods return
// modified copies, so a config can be built up and shared freely.
type PoolConfig struct {
	// MaxWorkers is the number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// TaskBufferSize is the task channel buffer.
	// Default: MaxWorkers * 2
	TaskBufferSize int

	// Timeout bounds one Execute call. Zero means no timeout.
	Timeout time.Duration

	// CollectMetrics enables per-task timing statistics.
	CollectMetrics bool
}

// DefaultPoolConfig returns the default configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers:     workers,
		TaskBufferSize: workers * 2,
	}
}

// WithWorkers returns a copy with the worker count set.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy with the per-call timeout set.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// WithMetrics returns a copy with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// ============================================================================
// Execution Metrics
// ============================================================================

// PoolMetrics holds execution statistics for a pool.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	TotalDuration  time.Duration
	AvgTaskTime    time.Duration
	MaxTaskTime    time.Duration
	MinTaskTime    time.Duration
}

// ============================================================================
// Tasks
// ============================================================================

// Task is one unit of work executed by the pool.
type Task[T any, R any] interface {
	// Execute performs the task.
	Execute(ctx context.Context) (R, error)
	// Input returns the task's input, echoed back in its result.
	Input() T
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc[T any, R any] struct {
	input   T
	execute func(ctx context.Context, input T) (R, error)
}

// NewTask wraps input and a function into a Task.
func NewTask[T any, R any](input T, fn func(ctx context.Context, input T) (R, error)) *TaskFunc[T, R] {
	return &TaskFunc[T, R]{input: input, execute: fn}
}

// Execute implements Task.
func (t *TaskFunc[T, R]) Execute(ctx context.Context) (R, error) {
	return t.execute(ctx, t.input)
}

// Input implements Task.
func (t *TaskFunc[T, R]) Input() T {
	return t.input
}

// TaskResult pairs a task's input with its outcome.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// ============================================================================
// Worker Pool
// ============================================================================

// WorkerPool runs batches of tasks across a fixed set of workers.
type WorkerPool[T any, R any] struct {
	config  PoolConfig
	mu      sync.Mutex
	metrics PoolMetrics
}

// NewWorkerPool creates a pool with the given configuration. Zero or
// negative config fields fall back to defaults.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	if config.TaskBufferSize <= 0 {
		config.TaskBufferSize = config.MaxWorkers * 2
	}
	return &WorkerPool[T, R]{config: config}
}

// Execute runs all tasks and returns one result per task, in input
// order. When the context is cancelled mid-batch, tasks not yet started
// keep their zero-valued result slot.
func (p *WorkerPool[T, R]) Execute(ctx context.Context, tasks []Task[T, R]) []TaskResult[T, R] {
	if len(tasks) == 0 {
		return nil
	}

	started := time.Now()

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(tasks))
	taskCh := make(chan int, p.config.TaskBufferSize)

	var wg sync.WaitGroup
	numWorkers := min(p.config.MaxWorkers, len(tasks))
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-taskCh:
					if !ok {
						return
					}
					task := tasks[idx]
					taskStart := time.Now()
					result, err := task.Execute(ctx)
					elapsed := time.Since(taskStart)

					results[idx] = TaskResult[T, R]{
						Input:    task.Input(),
						Result:   result,
						Error:    err,
						Duration: elapsed,
					}

					if p.config.CollectMetrics {
						p.recordTask(elapsed, err)
					}
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for i := range tasks {
			select {
			case <-ctx.Done():
				return
			case taskCh <- i:
			}
		}
	}()

	wg.Wait()

	if p.config.CollectMetrics {
		p.mu.Lock()
		p.metrics.TotalDuration = time.Since(started)
		if p.metrics.CompletedTasks > 0 {
			p.metrics.AvgTaskTime = p.metrics.TotalDuration / time.Duration(p.metrics.CompletedTasks)
		}
		p.mu.Unlock()
	}

	return results
}

// ExecuteFunc runs fn once per input.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	tasks := make([]Task[T, R], len(inputs))
	for i, input := range inputs {
		tasks[i] = NewTask(input, fn)
	}
	return p.Execute(ctx, tasks)
}

func (p *WorkerPool[T, R]) recordTask(elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}

	if elapsed > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = elapsed
	}
	if p.metrics.MinTaskTime == 0 || elapsed < p.metrics.MinTaskTime {
		p.metrics.MinTaskTime = elapsed
	}
}

// Metrics returns a snapshot of the pool's statistics.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// ============================================================================
// Parallel For-Each
// ============================================================================

// ForEach runs fn for every item and reports how many succeeded along
// with the first error observed.
func ForEach[T any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	fn func(ctx context.Context, item T) error,
) (processed int64, firstError error) {
	if len(items) == 0 {
		return 0, nil
	}

	var processedCount atomic.Int64
	var errOnce sync.Once

	pool := NewWorkerPool[T, struct{}](config)
	pool.ExecuteFunc(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		if err := fn(ctx, item); err != nil {
			errOnce.Do(func() { firstError = err })
			return struct{}{}, err
		}
		processedCount.Add(1)
		return struct{}{}, nil
	})

	return processedCount.Load(), firstError
}

// ============================================================================
// Parallel Aggregation
// ============================================================================

// ParallelAggregate folds items into a map using per-worker local maps,
// merging them once at the end. Workers never contend on a shared map.
func ParallelAggregate[T any, K comparable, V any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	extractor func(item T) (key K, value V),
	merger func(existing, incoming V) V,
) map[K]V {
	if len(items) == 0 {
		return make(map[K]V)
	}

	numWorkers := config.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultPoolConfig().MaxWorkers
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	localMaps := make([]map[K]V, numWorkers)
	for i := range localMaps {
		localMaps[i] = make(map[K]V)
	}

	chunkSize := (len(items) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, len(items))
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(local map[K]V, chunk []T) {
			defer wg.Done()
			for _, item := range chunk {
				select {
				case <-ctx.Done():
					return
				default:
				}
				key, value := extractor(item)
				if existing, ok := local[key]; ok {
					local[key] = merger(existing, value)
				} else {
					local[key] = value
				}
			}
		}(localMaps[w], items[start:end])
	}

	wg.Wait()

	merged := make(map[K]V)
	for _, local := range localMaps {
		for k, v := range local {
			if existing, ok := merged[k]; ok {
				merged[k] = merger(existing, v)
			} else {
				merged[k] = v
			}
		}
	}

	return merged
}

// ============================================================================
// Progress Tracking
// ============================================================================

// ProgressTracker reports completion counts for a long batch at a fixed
// interval.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	callback  func(completed, total int64)
	interval  time.Duration
	stopCh    chan struct{}
	stopped   atomic.Bool
}

// NewProgressTracker creates a tracker that invokes callback every
// interval (default 500ms) until stopped.
func NewProgressTracker(total int64, callback func(completed, total int64), interval time.Duration) *ProgressTracker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ProgressTracker{
		total:    total,
		callback: callback,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins reporting in a background goroutine.
func (pt *ProgressTracker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pt.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pt.stopCh:
				return
			case <-ticker.C:
				if pt.callback != nil {
					pt.callback(pt.completed.Load(), pt.total)
				}
			}
		}
	}()
}

// Increment adds one completed item.
func (pt *ProgressTracker) Increment() {
	pt.completed.Add(1)
}

// Add adds n completed items.
func (pt *ProgressTracker) Add(n int64) {
	pt.completed.Add(n)
}

// Stop halts reporting. Safe to call more than once.
func (pt *ProgressTracker) Stop() {
	if pt.stopped.CompareAndSwap(false, true) {
		close(pt.stopCh)
	}
}

// Completed returns the current completed count.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}
