package report

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
)

// statusWriteTimeout bounds the terminal status write, which runs even after the job context expired
const statusWriteTimeout = 10 * time.Second

// ReadingSource fetches projected readings for a device and time range
type ReadingSource interface {
	FetchReadings(ctx context.Context, deviceID string, start, end time.Time, fields []string) ([]domain.Reading, error)
}

// JobTracker records job status transitions
type JobTracker interface {
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, update domain.JobUpdate) error
}

// Mailer delivers a finished report
type Mailer interface {
	SendReport(ctx context.Context, to, deviceID string, start, end time.Time, report []byte) error
}

// OrchestratorConfig holds the collaborators of an Orchestrator
type OrchestratorConfig struct {
	Logger   *slog.Logger
	Registry *metric.Registry
	Readings ReadingSource
	Jobs     JobTracker
	// Mailer may be nil when email delivery is not configured
	Mailer Mailer
	// Location is the display timezone of report timestamps; UTC when nil
	Location *time.Location
}

// Orchestrator runs the query, format, encode and send pipeline of one report
// and records the outcome on the job
type Orchestrator struct {
	logger    *slog.Logger
	registry  *metric.Registry
	formatter *Formatter
	readings  ReadingSource
	jobs      JobTracker
	mailer    Mailer
	location  *time.Location
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Orchestrator{
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		formatter: NewFormatter(cfg.Registry),
		readings:  cfg.Readings,
		jobs:      cfg.Jobs,
		mailer:    cfg.Mailer,
		location:  loc,
	}
}

// Run executes req to completion. It never returns an error or panics: every
// failure ends with the job marked FAILED and the error text stored as its result.
func (o *Orchestrator) Run(ctx context.Context, req Request) {
	logger := o.logger.With(
		slog.String("job_id", req.JobID),
		slog.String("device_id", req.DeviceID),
	)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Report run panicked", slog.Any("panic", r))
			o.failSafely(ctx, logger, req.JobID, fmt.Errorf("report generation panicked: %v", r))
		}
	}()

	logger.Info("Report run started",
		slog.Time("start", req.Start),
		slog.Time("end", req.End),
		slog.Bool("email", req.Email != ""),
	)

	data, err := o.generate(ctx, logger, req)
	if err != nil {
		o.fail(ctx, logger, req.JobID, err)
		return
	}

	note := domain.NoteDidNotSend
	if req.Email != "" {
		if err := o.send(ctx, req, data); err != nil {
			o.fail(ctx, logger, req.JobID, err)
			return
		}
		note = domain.NoteSentEmail
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	err = o.writeStatus(ctx, req.JobID, domain.JobStatusCompleted, domain.JobUpdate{Note: &note, Result: &encoded})
	if err != nil && !errors.Is(err, domain.ErrStaleTransition) {
		logger.Error("Failed to mark job completed", slog.Any("error", err))
		o.fail(ctx, logger, req.JobID, fmt.Errorf("record completion: %w", err))
		return
	}

	logger.Info("Report run completed",
		slog.String("note", note),
		slog.Int("report_bytes", len(data)),
		slog.Duration("elapsed", time.Since(started)),
	)
}

// generate fetches the readings and returns the encoded workbook
func (o *Orchestrator) generate(ctx context.Context, logger *slog.Logger, req Request) ([]byte, error) {
	fields := o.registry.Filter(req.Fields)
	if dropped := len(req.Fields) - len(fields); dropped > 0 {
		logger.Warn("Dropped unknown report fields", slog.Int("dropped", dropped))
	}

	readings, err := o.readings.FetchReadings(ctx, req.DeviceID, req.Start, req.End, fields)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", domain.NewTransportError("store", err))
	}

	for i := range readings {
		readings[i].Timestamp = readings[i].Timestamp.In(o.location)
	}

	table := o.formatter.Format(readings, fields)
	if table.Missing > 0 {
		logger.Debug("Report has empty cells", slog.Int("missing", table.Missing))
	}

	data, err := EncodeXLSX(table)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	logger.Debug("Report generated",
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Header)),
	)

	return data, nil
}

func (o *Orchestrator) send(ctx context.Context, req Request, data []byte) error {
	if o.mailer == nil {
		return errors.New("send report: email delivery is not configured")
	}
	err := o.mailer.SendReport(ctx, req.Email, req.DeviceID, req.Start.In(o.location), req.End.In(o.location), data)
	if err != nil {
		return fmt.Errorf("send report: %w", domain.NewTransportError("email", err))
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	logger.Error("Report run failed", slog.Any("error", cause))

	detail := cause.Error()
	err := o.writeStatus(ctx, jobID, domain.JobStatusFailed, domain.JobUpdate{Result: &detail})
	if err != nil {
		logger.Error("Failed to mark job failed", slog.Any("error", err))
	}
}

// failSafely is fail for use inside a recover; a second panic is logged and swallowed
func (o *Orchestrator) failSafely(ctx context.Context, logger *slog.Logger, jobID string, cause error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Failed to record report panic", slog.Any("panic", r))
		}
	}()
	o.fail(ctx, logger, jobID, cause)
}

// writeStatus detaches from ctx so a timed out run can still record its outcome
func (o *Orchestrator) writeStatus(ctx context.Context, jobID string, status domain.JobStatus, update domain.JobUpdate) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	return o.jobs.UpdateStatus(writeCtx, jobID, status, update)
}
