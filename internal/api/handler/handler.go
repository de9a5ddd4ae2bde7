package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/cuongbtq/weather-report/internal/seed"
	"github.com/gin-gonic/gin"
)

// ReadingStore reads and writes weather readings
type ReadingStore interface {
	FetchReadings(ctx context.Context, deviceID string, start, end time.Time, fields []string) ([]domain.Reading, error)
	LatestReading(ctx context.Context, deviceID string) (*domain.Reading, error)
	InsertReadings(ctx context.Context, readings []domain.Reading) error
}

// JobStore persists report jobs
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, update domain.JobUpdate) error
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
	List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error)
}

// Scheduler starts a report run in the background
type Scheduler interface {
	Schedule(ctx context.Context, req report.Request) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Registry  *metric.Registry
	Readings  ReadingStore
	Jobs      JobStore
	Scheduler Scheduler
	Seeder    *seed.Generator
	// Location is the display timezone of date strings
	Location *time.Location
}

func (d *Dependencies) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// respondError maps err to a status code and writes {"error": ...}
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrPoolStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback,
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
