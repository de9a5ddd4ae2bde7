package domain

import "time"

// Job tracks one asynchronous report-generation request
type Job struct {
	JobID     string    `db:"job_id"`
	DeviceID  string    `db:"device_id"`
	UserID    string    `db:"user_id"`
	Status    JobStatus `db:"status"`
	Note      *string   `db:"note"`
	Result    *string   `db:"result"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// JobUpdate is the optional part of a status update. Nil fields keep their stored value.
type JobUpdate struct {
	Note   *string
	Result *string
}

// WithNote returns an update carrying only a note
func WithNote(note string) JobUpdate {
	return JobUpdate{Note: &note}
}

// JobFilter selects jobs for listing
type JobFilter struct {
	UserID   string
	DeviceID string
	Status   JobStatus
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is the keyset position for paginating jobs by (created_at, job_id) descending
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}
