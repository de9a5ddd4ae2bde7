package domain

// JobStatus is the lifecycle state of a report job
type JobStatus string

// Job status constants
const (
	JobStatusStarted    JobStatus = "STARTED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Notes written on the terminal transition of a successful report job
const (
	NoteSentEmail    = "Sent email"
	NoteDidNotSend   = "Did not send email"
	NoteQueueRefused = "Report queue refused the job"
)

// IsTerminal reports whether no further transitions are allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsValid reports whether s is one of the known statuses
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusStarted, JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Predecessors returns the statuses a job may be in for a transition to s to apply.
// IN_PROGRESS accepts itself so the note can be refreshed without moving backwards.
func (s JobStatus) Predecessors() []JobStatus {
	switch s {
	case JobStatusInProgress:
		return []JobStatus{JobStatusStarted, JobStatusInProgress}
	case JobStatusCompleted, JobStatusFailed:
		return []JobStatus{JobStatusStarted, JobStatusInProgress}
	default:
		return nil
	}
}

// CanTransition reports whether a job in status from may move to status to
func CanTransition(from, to JobStatus) bool {
	for _, p := range to.Predecessors() {
		if p == from {
			return true
		}
	}
	return false
}
