package dto

type SeedRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
}

type SeedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type GenerateReportRequest struct {
	DeviceID string   `json:"deviceId" binding:"required"`
	From     string   `json:"from" binding:"required"`
	To       string   `json:"to" binding:"required"`
	UserID   string   `json:"userId"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Fields   []string `json:"fields"`
}

type GenerateReportResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReadingDTO is one reading keyed by metric plus "dateString".
// A missing metric is present with a null value.
type ReadingDTO map[string]any
