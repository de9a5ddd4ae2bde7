package handler

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/weather-report/internal/api/dto"
	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/notify"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   JobStore
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}

// GetJob handles GET /jobs/:job_id
// Returns the job status; ?include_result=true adds the stored result
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	includeResult := c.Query("include_result") == "true"
	c.JSON(http.StatusOK, dto.NewJobDTO(job, includeResult))
}

// DownloadReport handles GET /jobs/:job_id/report
// Streams the workbook of a completed job
func (h *JobHandler) DownloadReport(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	if job.Status != domain.JobStatusCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "report is not available",
			"status": string(job.Status),
		})
		return
	}

	data, err := base64.StdEncoding.DecodeString(*job.Result)
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("decode stored report: %w", err), "Failed to read report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", notify.ReportFilename(job.DeviceID)))
	c.Data(http.StatusOK, report.ContentType, data)
}

// ListJobs handles GET /jobs
// Lists jobs newest first with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	status := domain.JobStatus(req.Status)
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid status: %s", req.Status)})
		return
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Debug("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	jobs, err := h.jobs.List(c.Request.Context(), domain.JobFilter{
		UserID:   req.UserID,
		DeviceID: req.DeviceID,
		Status:   status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to list jobs")
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = dto.NewJobDTO(&jobs[i], false)
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&domain.JobCursor{CreatedAt: last.CreatedAt, JobID: last.JobID})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// loadJob validates the job_id parameter and fetches the job, writing the error response on failure
func (h *JobHandler) loadJob(c *gin.Context) (*domain.Job, bool) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return nil, false
	}

	job, err := h.jobs.GetByID(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get job")
		return nil, false
	}
	return job, true
}
