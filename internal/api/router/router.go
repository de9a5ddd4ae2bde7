package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/weather-report/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options configures the router beyond the handler dependencies
type Options struct {
	ServiceName string
	// Health is pinged by GET /health; nil reports healthy
	Health HealthChecker
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", healthHandler(deps.Logger, opts))

	weatherHandler := handler.NewWeatherHandler(deps)
	reportHandler := handler.NewReportHandler(deps)
	jobHandler := handler.NewJobHandler(deps)

	weather := r.Group("/weather")
	{
		// POST /weather/postman - Seed synthetic readings
		weather.POST("/postman", weatherHandler.Seed)

		// POST /weather/report - Start a report job
		weather.POST("/report", reportHandler.GenerateReport)

		// GET /weather/:id/latest - Newest reading of a device
		weather.GET("/:id/latest", weatherHandler.GetLatest)

		// GET /weather/:id/:metric/:from/:to - Readings over a range
		weather.GET("/:id/:metric/:from/:to", weatherHandler.GetData)
	}

	jobs := r.Group("/jobs")
	{
		// GET /jobs - List report jobs
		jobs.GET("", jobHandler.ListJobs)

		// GET /jobs/:job_id - Job status
		jobs.GET("/:job_id", jobHandler.GetJob)

		// GET /jobs/:job_id/report - Download the finished workbook
		jobs.GET("/:job_id/report", jobHandler.DownloadReport)
	}

	return r
}

func healthHandler(logger *slog.Logger, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health.HealthCheck(c.Request.Context()); err != nil {
				logger.Warn("Health check failed", slog.Any("error", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": opts.ServiceName,
					"error":   err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	}
}
