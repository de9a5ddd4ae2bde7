package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
)

// Task is one unit of work run by the pool
type Task struct {
	// JobID identifies the task in logs
	JobID string
	Run   func(ctx context.Context)
}

// PoolConfig holds pool configuration
type PoolConfig struct {
	Logger      *slog.Logger
	Concurrency int
	QueueSize   int
	// JobTimeout bounds a single task; zero disables the limit
	JobTimeout time.Duration
}

// Pool runs tasks on a fixed number of goroutines fed by a bounded queue.
// Tasks run under the context given to Start, never the submitter's.
type Pool struct {
	logger      *slog.Logger
	concurrency int
	jobTimeout  time.Duration

	tasks chan Task
	quit  chan struct{}

	mu      sync.RWMutex
	stopped bool

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool creates a new pool. Call Start before submitting.
func NewPool(cfg *PoolConfig) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	return &Pool{
		logger:      cfg.Logger,
		concurrency: concurrency,
		jobTimeout:  cfg.JobTimeout,
		tasks:       make(chan Task, queueSize),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start spawns the worker goroutines. ctx is the lifetime of every task.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.runCtx, p.runCancel = context.WithCancel(ctx)

		p.logger.Info("Spawning worker pool",
			slog.Int("concurrency", p.concurrency),
			slog.Int("queue_size", cap(p.tasks)),
			slog.Duration("job_timeout", p.jobTimeout),
		)

		for i := 0; i < p.concurrency; i++ {
			p.wg.Add(1)
			go p.workerLoop(i)
		}

		go func() {
			p.wg.Wait()
			close(p.done)
		}()
	})
}

// Submit enqueues task without blocking.
// It returns domain.ErrQueueFull when the queue has no room.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return domain.ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// SubmitWait enqueues task, waiting for room until ctx is done or the pool stops
func (p *Pool) SubmitWait(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return domain.ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
		return domain.ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks not yet picked up
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// Stop refuses new tasks and waits for queued and running ones to finish.
// When ctx expires first, the task context is canceled and Stop waits for the
// workers to return.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool", slog.Int("pending", len(p.tasks)))
		close(p.quit)

		p.mu.Lock()
		p.stopped = true
		close(p.tasks)
		p.mu.Unlock()
	})

	if p.runCancel == nil {
		return nil
	}

	select {
	case <-p.done:
		p.runCancel()
		p.logger.Info("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Worker pool drain timed out, canceling running tasks",
			slog.Int("pending", len(p.tasks)),
		)
		p.runCancel()
		<-p.done
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

// workerLoop is the processing loop of each worker goroutine
func (p *Pool) workerLoop(workerNum int) {
	defer p.wg.Done()

	p.logger.Debug("Worker goroutine started", slog.Int("worker_num", workerNum))

	for task := range p.tasks {
		p.execute(workerNum, task)
	}

	p.logger.Debug("Worker goroutine stopping - queue closed", slog.Int("worker_num", workerNum))
}

func (p *Pool) execute(workerNum int, task Task) {
	ctx := p.runCtx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked",
				slog.Int("worker_num", workerNum),
				slog.String("job_id", task.JobID),
				slog.Any("panic", r),
			)
		}
	}()

	p.logger.Debug("Worker received task",
		slog.Int("worker_num", workerNum),
		slog.String("job_id", task.JobID),
	)

	task.Run(ctx)
}
