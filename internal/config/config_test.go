package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_PASSWORD", "s3cret")

			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "weather_db", cfg.Database.Database)
				assert.Equal(t, "s3cret", cfg.Database.Password)
				assert.True(t, cfg.Database.AutoMigrate)
				assert.Equal(t, "reports_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "report_tasks", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, 2, cfg.RabbitMQ.Consumer.PrefetchCount)
				assert.Equal(t, "weather-report-api", cfg.App.Name)
				assert.Equal(t, 2*time.Minute, cfg.Worker.JobTimeout)
				assert.Equal(t, DispatchQueue, cfg.Report.Dispatch)
				assert.Equal(t, "log", cfg.Email.Provider)
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load("testdata/invalid_port.yaml")
	require.NoError(t, err)

	assert.Equal(t, DispatchLocal, cfg.Report.Dispatch)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 100, cfg.Worker.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Worker.ShutdownTimeout)
	assert.Equal(t, 4, cfg.RabbitMQ.Consumer.PrefetchCount)
}

func validAPIConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "weather_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "reports_exchange"},
			Queue:    QueueConfig{Name: "report_tasks"},
		},
		Worker: WorkerConfig{Concurrency: 2, QueueSize: 10},
		Report: ReportConfig{Dispatch: DispatchLocal, Timezone: "UTC"},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid local dispatch",
			mutate: func(c *Config) {},
		},
		{
			name: "local dispatch does not need rabbitmq",
			mutate: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{}
			},
		},
		{
			name: "invalid server port - too low",
			mutate: func(c *Config) {
				c.Server.Port = 0
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "invalid server port - too high",
			mutate: func(c *Config) {
				c.Server.Port = 70000
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "empty database host",
			mutate: func(c *Config) {
				c.Database.Host = ""
			},
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name: "empty database name",
			mutate: func(c *Config) {
				c.Database.Database = ""
			},
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name: "queue dispatch requires rabbitmq host",
			mutate: func(c *Config) {
				c.Report.Dispatch = DispatchQueue
				c.RabbitMQ.Host = ""
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name: "queue dispatch requires exchange name",
			mutate: func(c *Config) {
				c.Report.Dispatch = DispatchQueue
				c.RabbitMQ.Exchange.Name = ""
			},
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name: "queue dispatch requires queue name",
			mutate: func(c *Config) {
				c.Report.Dispatch = DispatchQueue
				c.RabbitMQ.Queue.Name = ""
			},
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name: "unknown dispatch",
			mutate: func(c *Config) {
				c.Report.Dispatch = "cron"
			},
			wantErr:   true,
			errString: "invalid report dispatch",
		},
		{
			name: "local dispatch needs workers",
			mutate: func(c *Config) {
				c.Worker.Concurrency = 0
			},
			wantErr:   true,
			errString: "worker concurrency must be greater than 0",
		},
		{
			name: "unknown timezone",
			mutate: func(c *Config) {
				c.Report.Timezone = "Mars/Olympus"
			},
			wantErr:   true,
			errString: "invalid report timezone",
		},
		{
			name: "resend without api key",
			mutate: func(c *Config) {
				c.Email = EmailConfig{Provider: "resend", From: "a@example.com"}
			},
			wantErr:   true,
			errString: "email api_key is required",
		},
		{
			name: "log provider without sender",
			mutate: func(c *Config) {
				c.Email = EmailConfig{Provider: "log"}
			},
			wantErr:   true,
			errString: "email from is required for provider log",
		},
		{
			name: "unknown email provider",
			mutate: func(c *Config) {
				c.Email.Provider = "smtp"
			},
			wantErr:   true,
			errString: "invalid email provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	cfg := validAPIConfig()
	require.NoError(t, cfg.ValidateWorkerConfig())

	cfg.Server.Port = 0
	assert.NoError(t, cfg.ValidateWorkerConfig(), "worker has no HTTP server")

	cfg.RabbitMQ.Queue.Name = ""
	err := cfg.ValidateWorkerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq queue name is required")
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
	assert.Equal(t, 5*3600+30*60, offset)

	cfg.Report.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}
