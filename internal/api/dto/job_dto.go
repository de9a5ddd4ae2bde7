package dto

import (
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
)

type ListJobsRequest struct {
	UserID   string `form:"user_id"`
	DeviceID string `form:"device_id"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID     string  `json:"job_id"`
	DeviceID  string  `json:"device_id"`
	UserID    string  `json:"user_id"`
	Status    string  `json:"status"`
	Note      *string `json:"note,omitempty"`
	Result    *string `json:"result,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// NewJobDTO converts job; the result is only copied when includeResult is set
func NewJobDTO(job *domain.Job, includeResult bool) JobDTO {
	d := JobDTO{
		JobID:     job.JobID,
		DeviceID:  job.DeviceID,
		UserID:    job.UserID,
		Status:    string(job.Status),
		Note:      job.Note,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}
	if includeResult {
		d.Result = job.Result
	}
	return d
}
