package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// queue provides read access to the tasks to be processed
	queue QueueReader

	// config holds the worker count and the per task timeout
	config WorkerPoolConfig

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is cancelled when Stop gives up waiting for the queue to drain
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// TaskTimeout bounds a single execution. Zero means no limit.
	TaskTimeout time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
		TaskTimeout: 30 * time.Second,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(queue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:  queue,
		config: config,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. They run until the queue is closed and
// drained, or until Stop gives up waiting.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.config.WorkerCount)
	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for the workers to finish the tasks left in the closed queue.
// When ctx ends first the running tasks are cancelled and ctx's error is
// returned. The queue must be closed before calling Stop.
func (p *WorkerPool) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("worker pool stopped before the queue was drained")
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.queue.Tasks():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(t, id)
		}
	}
}

// process executes a single task. A panicking task is reported as failed
// and does not take the worker down.
func (p *WorkerPool) process(t Task, workerID int) {
	logger := p.logger.With("task_type", t.Type(), "worker_id", workerID)

	ctx := p.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return t.Execute(ctx)
	}()

	if err != nil {
		logger.Error("task execution failed", "error", err, "duration", time.Since(start))
		if p.errorHandler != nil {
			p.errorHandler(t, err)
		}
		return
	}
	logger.Debug("task completed", "duration", time.Since(start))
}
