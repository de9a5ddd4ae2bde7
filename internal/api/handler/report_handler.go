package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/weather-report/internal/api/dto"
	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/cuongbtq/weather-report/shared/timeparser"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const reportStartedMessage = "Generation job started successfully"

// ReportHandler starts asynchronous report jobs
type ReportHandler struct {
	logger    *slog.Logger
	registry  *metric.Registry
	jobs      JobStore
	scheduler Scheduler
	location  *time.Location
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(deps *Dependencies) *ReportHandler {
	return &ReportHandler{
		logger:    deps.Logger,
		registry:  deps.Registry,
		jobs:      deps.Jobs,
		scheduler: deps.Scheduler,
		location:  deps.location(),
	}
}

// GenerateReport handles POST /weather/report
// Creates a job, schedules the report run and returns without waiting for it
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	start, end, err := timeparser.ParseRange(req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = h.registry.Keys()
	}

	id, err := uuid.NewV7()
	if err != nil {
		respondError(c, h.logger, err, "Failed to create job")
		return
	}

	ctx := c.Request.Context()
	job := &domain.Job{
		JobID:    id.String(),
		DeviceID: req.DeviceID,
		UserID:   req.UserID,
		Status:   domain.JobStatusStarted,
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		respondError(c, h.logger, err, "Failed to create job")
		return
	}

	logger := h.logger.With(slog.String("job_id", job.JobID))
	logger.Info("Report job created", slog.String("device_id", job.DeviceID))

	run := report.Request{
		JobID:    job.JobID,
		DeviceID: req.DeviceID,
		UserID:   req.UserID,
		Start:    start,
		End:      end,
		Fields:   fields,
		Email:    req.Email,
	}
	if err := h.scheduler.Schedule(ctx, run); err != nil {
		h.refuse(c, logger, job.JobID, err)
		return
	}

	status := domain.JobStatusInProgress
	err = h.jobs.UpdateStatus(ctx, job.JobID, domain.JobStatusInProgress, domain.WithNote(h.progressNote(run)))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStaleTransition):
		// the run finished before the handler got here
		if current, getErr := h.jobs.GetByID(ctx, job.JobID); getErr == nil {
			status = current.Status
		}
	default:
		// the run is already scheduled and will record its own outcome
		logger.Error("Failed to mark job in progress", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, dto.GenerateReportResponse{
		JobID:   job.JobID,
		Status:  string(status),
		Message: reportStartedMessage,
	})
}

// refuse records a scheduling failure on the job and reports it to the client
func (h *ReportHandler) refuse(c *gin.Context, logger *slog.Logger, jobID string, cause error) {
	logger.Error("Failed to schedule report", slog.Any("error", cause))

	detail := cause.Error()
	note := domain.NoteQueueRefused
	err := h.jobs.UpdateStatus(c.Request.Context(), jobID, domain.JobStatusFailed, domain.JobUpdate{Note: &note, Result: &detail})
	if err != nil {
		logger.Error("Failed to mark job failed", slog.Any("error", err))
	}

	if errors.Is(cause, domain.ErrQueueFull) || errors.Is(cause, domain.ErrPoolStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": cause.Error(), "job_id": jobID})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule report", "job_id": jobID})
}

func (h *ReportHandler) progressNote(req report.Request) string {
	from := req.Start.In(h.location).Format(time.RFC3339)
	to := req.End.In(h.location).Format(time.RFC3339)
	if req.Email == "" {
		return fmt.Sprintf("Generating report for %s from %s to %s and will not send email", req.DeviceID, from, to)
	}
	return fmt.Sprintf("Generating report for %s from %s to %s and will send email to %s", req.DeviceID, from, to, req.Email)
}
