package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/weather-report/internal/api/handler"
	"github.com/cuongbtq/weather-report/internal/api/router"
	"github.com/cuongbtq/weather-report/internal/bootstrap"
	"github.com/cuongbtq/weather-report/internal/config"
	"github.com/cuongbtq/weather-report/internal/seed"
	"github.com/cuongbtq/weather-report/internal/worker"
	"github.com/cuongbtq/weather-report/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := bootstrap.InitLogger(&cfg.Logging, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("dispatch", cfg.Report.Dispatch),
	)

	// Initialize PostgreSQL client
	dbClient, err := bootstrap.InitPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established")

	pipeline, err := bootstrap.NewPipeline(cfg, dbClient.GetDB(), appLogger.Logger)
	if err != nil {
		return err
	}

	var (
		scheduler    handler.Scheduler
		rabbitClient *rabbitmq.Client
	)
	switch cfg.Report.Dispatch {
	case config.DispatchQueue:
		rabbitClient, err = bootstrap.InitRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		appLogger.Info("RabbitMQ connection established")
		scheduler = worker.NewQueueScheduler(rabbitClient, appLogger.Logger)
	default:
		pipeline.Pool.Start(context.Background())
		scheduler = worker.NewLocalScheduler(pipeline.Pool, pipeline.Orchestrator)
	}

	// Initialize router
	r := initRouter(cfg, &handler.Dependencies{
		Logger:    appLogger.Logger,
		Registry:  pipeline.Registry,
		Readings:  pipeline.Readings,
		Jobs:      pipeline.Jobs,
		Scheduler: scheduler,
		Seeder:    seed.NewGenerator(pipeline.Registry, nil),
		Location:  pipeline.Location,
	}, dbClient)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running", slog.String("address", addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		stopPool(pipeline.Pool, cfg, appLogger.Logger)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	// Accepted jobs still queued on the local pool finish before the database closes
	stopPool(pipeline.Pool, cfg, appLogger.Logger)

	appLogger.Info("Server shutdown complete")
	return nil
}

func stopPool(pool *worker.Pool, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()

	if err := pool.Stop(ctx); err != nil {
		logger.Warn("Report pool did not drain", slog.Any("error", err))
	}
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies, health router.HealthChecker) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, router.Options{
		ServiceName: cfg.App.Name,
		Health:      health,
	})
}
