package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/weather-report/internal/api/handler"
	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

type noReadings struct{}

func (noReadings) FetchReadings(context.Context, string, time.Time, time.Time, []string) ([]domain.Reading, error) {
	return nil, errors.New("unexpected call")
}

func (noReadings) LatestReading(context.Context, string) (*domain.Reading, error) {
	return nil, nil
}

func (noReadings) InsertReadings(context.Context, []domain.Reading) error {
	return nil
}

func testDeps() *handler.Dependencies {
	return &handler.Dependencies{
		Logger:   slog.New(slog.DiscardHandler),
		Registry: metric.Default(),
		Readings: noReadings{},
		Location: time.UTC,
	}
}

func TestSetupRouter_Health(t *testing.T) {
	tests := []struct {
		name   string
		health HealthChecker
		want   int
	}{
		{name: "no checker", want: http.StatusOK},
		{name: "database up", health: healthFunc(func(context.Context) error { return nil }), want: http.StatusOK},
		{name: "database down", health: healthFunc(func(context.Context) error { return errors.New("refused") }), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetupRouter(testDeps(), Options{ServiceName: "weather-report-api", Health: tt.health})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "weather-report-api")
		})
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	r := SetupRouter(testDeps(), Options{})

	// static segment wins over the metric parameter
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather/D1/latest", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weather/D1/bogus/2024-01-01/2024-01-02", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid metric: bogus"}`, w.Body.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := SetupRouter(testDeps(), Options{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/weather/report", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
