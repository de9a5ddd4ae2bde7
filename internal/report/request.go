package report

import (
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/google/uuid"
)

// Request describes one report run. It is also the body of a queued report task.
type Request struct {
	JobID    string    `json:"job_id"`
	DeviceID string    `json:"device_id"`
	UserID   string    `json:"user_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Fields   []string  `json:"fields"`
	Email    string    `json:"email,omitempty"`
}

// Validate checks the parts of a request the orchestrator relies on
func (r Request) Validate() error {
	if _, err := uuid.Parse(r.JobID); err != nil {
		return domain.NewValidationError("job_id", r.JobID, "job_id must be a valid UUID")
	}
	if r.DeviceID == "" {
		return domain.NewValidationError("device_id", "", "device_id is required")
	}
	if r.Start.After(r.End) {
		return domain.NewValidationError("from", r.Start.Format(time.RFC3339), "from must not be after to")
	}
	return nil
}
