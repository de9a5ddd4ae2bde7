package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliverySource provides report task deliveries from the queue
type DeliverySource interface {
	SetPrefetch(count int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// JobLookup reads a job's current state
type JobLookup interface {
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Source        DeliverySource
	Pool          *Pool
	Runner        Runner
	Jobs          JobLookup
	WorkerID      string
	PrefetchCount int
	QueueName     string
}

// Worker consumes queued report tasks and runs them on its pool
type Worker struct {
	logger        *slog.Logger
	source        DeliverySource
	pool          *Pool
	runner        Runner
	jobs          JobLookup
	workerID      string
	prefetchCount int
	queueName     string
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = defaultWorkerID()
	}

	return &Worker{
		logger:        cfg.Logger.With(slog.String("worker_id", workerID)),
		source:        cfg.Source,
		pool:          cfg.Pool,
		runner:        cfg.Runner,
		jobs:          cfg.Jobs,
		workerID:      workerID,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
	}
}

// Start consumes deliveries until ctx is canceled. Tasks already handed to
// the pool keep running after ctx ends; call Stop to drain them.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("prefetch_count", w.prefetchCount),
		slog.String("queue", w.queueName),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.pool.Start(context.WithoutCancel(ctx))

	if !w.startMessageDispatcher(ctx, deliveries) {
		return fmt.Errorf("delivery channel closed unexpectedly")
	}

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop waits for queued and running report tasks to finish
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("Stopping worker...")
	if err := w.pool.Stop(ctx); err != nil {
		return err
	}
	w.logger.Info("Worker stopped")
	return nil
}

// WorkerID returns the consumer tag of this worker
func (w *Worker) WorkerID() string {
	return w.workerID
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
