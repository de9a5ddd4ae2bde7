package bootstrap

import (
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuongbtq/weather-report/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock")
}

func baseConfig() *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{Concurrency: 2, QueueSize: 4},
		Report: config.ReportConfig{Dispatch: config.DispatchLocal, Timezone: "UTC"},
		Email:  config.EmailConfig{Provider: "none"},
	}
}

func TestNewPipeline(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("email disabled", func(t *testing.T) {
		p, err := NewPipeline(baseConfig(), newMockDB(t), logger)
		require.NoError(t, err)

		assert.Equal(t, time.UTC, p.Location)
		assert.True(t, p.Registry.IsValid("co2"))
		assert.NotNil(t, p.Orchestrator)
		assert.NotNil(t, p.Pool)
	})

	t.Run("log provider", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Email = config.EmailConfig{Provider: "log", From: "reports@example.com"}

		_, err := NewPipeline(cfg, newMockDB(t), logger)
		assert.NoError(t, err)
	})

	t.Run("resend without key", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Email = config.EmailConfig{Provider: "resend", From: "reports@example.com"}

		_, err := NewPipeline(cfg, newMockDB(t), logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to configure email")
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Report.Timezone = "Nowhere/Land"

		_, err := NewPipeline(cfg, newMockDB(t), logger)
		assert.Error(t, err)
	})
}

func TestInitLogger(t *testing.T) {
	l, err := InitLogger(&config.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"}, "weather-api")
	require.NoError(t, err)
	assert.NoError(t, l.Close())

	_, err = InitLogger(&config.LoggingConfig{Format: "xml"}, "weather-api")
	assert.Error(t, err)
}
