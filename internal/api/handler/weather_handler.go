package handler

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/weather-report/internal/api/dto"
	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/cuongbtq/weather-report/internal/seed"
	"github.com/cuongbtq/weather-report/shared/timeparser"
	"github.com/gin-gonic/gin"
)

const dateStringKey = "dateString"

// WeatherHandler serves sensor readings
type WeatherHandler struct {
	logger   *slog.Logger
	registry *metric.Registry
	readings ReadingStore
	seeder   *seed.Generator
	location *time.Location
}

// NewWeatherHandler creates a new WeatherHandler instance
func NewWeatherHandler(deps *Dependencies) *WeatherHandler {
	return &WeatherHandler{
		logger:   deps.Logger,
		registry: deps.Registry,
		readings: deps.Readings,
		seeder:   deps.Seeder,
		location: deps.location(),
	}
}

// GetData handles GET /weather/:id/:metric/:from/:to
// Returns the requested metrics of a device over a time range
func (h *WeatherHandler) GetData(c *gin.Context) {
	deviceID := c.Param("id")
	metrics := splitMetrics(c.Param("metric"))

	if bad, found := h.registry.FirstInvalid(metrics); found {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid metric: %s", bad)})
		return
	}

	start, end, err := timeparser.ParseRange(c.Param("from"), c.Param("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	readings, err := h.readings.FetchReadings(c.Request.Context(), deviceID, start, end, metrics)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch readings")
		return
	}

	h.logger.Debug("Fetched readings",
		slog.String("device_id", deviceID),
		slog.Int("count", len(readings)),
	)

	data := make([]dto.ReadingDTO, len(readings))
	for i, r := range readings {
		data[i] = h.toDTO(r, metrics)
	}

	c.JSON(http.StatusOK, data)
}

// GetLatest handles GET /weather/:id/latest
// Returns the newest reading with every metric, or null
func (h *WeatherHandler) GetLatest(c *gin.Context) {
	deviceID := c.Param("id")

	reading, err := h.readings.LatestReading(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch latest reading")
		return
	}

	if reading == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, h.toDTO(*reading, h.registry.MetricKeys()))
}

// Seed handles POST /weather/postman
// Inserts one synthetic reading per minute in [from, to)
func (h *WeatherHandler) Seed(c *gin.Context) {
	var req dto.SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	from, to, err := timeparser.ParseRange(req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if n := seed.Count(from, to); n > seed.MaxReadings {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("range produces %d readings, at most %d allowed", n, seed.MaxReadings),
		})
		return
	}

	readings := h.seeder.Generate(req.DeviceID, from, to)
	if err := h.readings.InsertReadings(c.Request.Context(), readings); err != nil {
		respondError(c, h.logger, err, "Failed to insert readings")
		return
	}

	h.logger.Info("Seeded readings",
		slog.String("device_id", req.DeviceID),
		slog.Int("count", len(readings)),
	)

	c.JSON(http.StatusOK, dto.SeedResponse{
		Message: "Created Successfully",
		Count:   len(readings),
	})
}

// toDTO renders r with keys rounded to two decimals; timestamp becomes a date string
func (h *WeatherHandler) toDTO(r domain.Reading, keys []string) dto.ReadingDTO {
	date := report.FormatTimestamp(r.Timestamp.In(h.location))
	out := dto.ReadingDTO{dateStringKey: date}
	for _, key := range keys {
		if key == metric.Timestamp {
			out[key] = date
			continue
		}
		v, ok := r.Value(key)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			out[key] = nil
			continue
		}
		out[key] = report.Round(v, 2)
	}
	return out
}

func splitMetrics(raw string) []string {
	parts := strings.Split(raw, ",")
	metrics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			metrics = append(metrics, p)
		}
	}
	return metrics
}
