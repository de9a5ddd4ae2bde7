package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/report"
)

// Runner executes a report request to completion
type Runner interface {
	Run(ctx context.Context, req report.Request)
}

// LocalScheduler runs report requests on an in-process pool
type LocalScheduler struct {
	pool   *Pool
	runner Runner
}

// NewLocalScheduler creates a scheduler that submits to pool
func NewLocalScheduler(pool *Pool, runner Runner) *LocalScheduler {
	return &LocalScheduler{pool: pool, runner: runner}
}

// Schedule submits req without waiting for it to run.
// The request context is not used by the task.
func (s *LocalScheduler) Schedule(_ context.Context, req report.Request) error {
	return s.pool.Submit(Task{
		JobID: req.JobID,
		Run: func(ctx context.Context) {
			s.runner.Run(ctx, req)
		},
	})
}

// Publisher publishes a message body to the report queue
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// QueueScheduler hands report requests to the worker service through RabbitMQ
type QueueScheduler struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewQueueScheduler creates a scheduler publishing through publisher
func NewQueueScheduler(publisher Publisher, logger *slog.Logger) *QueueScheduler {
	return &QueueScheduler{publisher: publisher, logger: logger}
}

// Schedule publishes req as a JSON report task
func (s *QueueScheduler) Schedule(ctx context.Context, req report.Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal report task: %w", err)
	}

	if err := s.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish report task: %w", domain.NewTransportError("queue", err))
	}

	s.logger.Debug("Report task published",
		slog.String("job_id", req.JobID),
		slog.Int("body_size", len(body)),
	)
	return nil
}
