package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/report"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer sets the prefetch window and returns the delivery channel
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if err := w.source.SetPrefetch(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	// auto-ack is off: a task is acked only after its run recorded a terminal status
	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
	)

	return deliveries, nil
}

// startMessageDispatcher hands deliveries to the pool until ctx is canceled.
// It returns false when the delivery channel closes first.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	w.logger.Info("Message dispatcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return true

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return false
			}
			w.dispatch(ctx, delivery)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, delivery amqp.Delivery) {
	req, err := decodeTask(delivery.Body)
	if err != nil {
		w.logger.Error("Rejecting malformed report task",
			slog.Any("error", err),
			slog.String("body", string(delivery.Body)),
		)
		// malformed tasks never succeed, so they go to the dead letter path instead of back on the queue
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			w.logger.Error("Failed to NACK malformed message", slog.Any("error", nackErr))
		}
		return
	}

	task := Task{
		JobID: req.JobID,
		Run: func(ctx context.Context) {
			defer w.ack(delivery, req.JobID)
			w.process(ctx, req)
		},
	}

	if err := w.pool.SubmitWait(ctx, task); err != nil {
		w.logger.Info("Report task returned to queue",
			slog.String("job_id", req.JobID),
			slog.Any("reason", err),
		)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			w.logger.Error("Failed to NACK message on shutdown", slog.Any("error", nackErr))
		}
		return
	}

	w.logger.Debug("Report task dispatched to worker pool",
		slog.String("job_id", req.JobID),
		slog.Uint64("delivery_tag", delivery.DeliveryTag),
	)
}

// process runs req unless its job already reached a terminal state,
// which happens when a delivery is redelivered after a crash
func (w *Worker) process(ctx context.Context, req report.Request) {
	if w.jobs != nil {
		job, err := w.jobs.GetByID(ctx, req.JobID)
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			w.logger.Warn("Report task references unknown job, skipping", slog.String("job_id", req.JobID))
			return
		case err != nil:
			w.logger.Warn("Failed to look up job, running anyway",
				slog.String("job_id", req.JobID),
				slog.Any("error", err),
			)
		case job.Status.IsTerminal():
			w.logger.Info("Job already finished, skipping",
				slog.String("job_id", req.JobID),
				slog.String("status", string(job.Status)),
			)
			return
		}
	}

	w.runner.Run(ctx, req)
}

func (w *Worker) ack(delivery amqp.Delivery, jobID string) {
	if err := delivery.Ack(false); err != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return
	}
	w.logger.Debug("Report task acknowledged", slog.String("job_id", jobID))
}

// decodeTask parses and validates a queued report request
func decodeTask(body []byte) (report.Request, error) {
	var req report.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", domain.ErrInvalidTask, err)
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", domain.ErrInvalidTask, err)
	}
	return req, nil
}
