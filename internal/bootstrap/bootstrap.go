// Package bootstrap builds the clients and report pipeline shared by the API and worker services.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/weather-report/internal/config"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/cuongbtq/weather-report/internal/notify"
	"github.com/cuongbtq/weather-report/internal/report"
	"github.com/cuongbtq/weather-report/internal/storage"
	"github.com/cuongbtq/weather-report/internal/worker"
	"github.com/cuongbtq/weather-report/shared/logger"
	"github.com/cuongbtq/weather-report/shared/postgresql"
	"github.com/cuongbtq/weather-report/shared/rabbitmq"
	"github.com/jmoiron/sqlx"
)

// InitLogger initializes and configures the application logger
func InitLogger(cfg *config.LoggingConfig, service string) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
		Service:      service,
	})
}

// InitPostgreSQL connects to the database and applies the schema when auto_migrate is set
func InitPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	client, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		RetryAttempts:   cfg.RetryAttempts,
		RetryInterval:   cfg.RetryInterval,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := storage.EnsureSchema(ctx, client.GetDB()); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("Database schema applied")
	}

	return client, nil
}

// InitRabbitMQ initializes the RabbitMQ client
func InitRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		DeadLetterExchange: cfg.Queue.DeadLetterExchange,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

// Pipeline is everything needed to run reports in-process
type Pipeline struct {
	Registry     *metric.Registry
	Readings     *storage.ReadingStorage
	Jobs         *storage.JobStorage
	Orchestrator *report.Orchestrator
	Pool         *worker.Pool
	Location     *time.Location
}

// NewPipeline wires storage, email and the orchestrator onto db
func NewPipeline(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := metric.Default()
	readings := storage.NewReadingStorage(db, registry, logger)
	jobs := storage.NewJobStorage(db, logger)

	mailer, err := notify.NewFromConfig(notify.Config{
		Provider: cfg.Email.Provider,
		APIKey:   cfg.Email.APIKey,
		From:     cfg.Email.From,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure email: %w", err)
	}

	orchCfg := &report.OrchestratorConfig{
		Logger:   logger,
		Registry: registry,
		Readings: readings,
		Jobs:     jobs,
		Location: loc,
	}
	// a nil *Mailer must not become a non-nil interface
	if mailer != nil {
		orchCfg.Mailer = mailer
	} else {
		logger.Warn("Email delivery disabled, reports requesting an email will fail")
	}

	pool := worker.NewPool(&worker.PoolConfig{
		Logger:      logger,
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		JobTimeout:  cfg.Worker.JobTimeout,
	})

	return &Pipeline{
		Registry:     registry,
		Readings:     readings,
		Jobs:         jobs,
		Orchestrator: report.NewOrchestrator(orchCfg),
		Pool:         pool,
		Location:     loc,
	}, nil
}
