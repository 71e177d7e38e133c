package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/riya-shete/csv-analyzer/internal/config"
	"github.com/riya-shete/csv-analyzer/internal/database"
	"github.com/riya-shete/csv-analyzer/internal/dataset"
	"github.com/riya-shete/csv-analyzer/internal/handlers"
	"github.com/riya-shete/csv-analyzer/internal/llm"
	"github.com/riya-shete/csv-analyzer/internal/middleware"
	"github.com/riya-shete/csv-analyzer/internal/models"
	"github.com/riya-shete/csv-analyzer/internal/services"
	"github.com/riya-shete/csv-analyzer/internal/storage"
	"github.com/riya-shete/csv-analyzer/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(&models.Report{}); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Wire the service stack
	store, err := storage.NewStore(afero.NewOsFs(), cfg.Upload.Dir, logger)
	if err != nil {
		logger.Fatal("failed to initialize upload storage", zap.Error(err))
	}

	generator, err := llm.NewGenerator(cfg.LLM, logger)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENROUTER_API_KEY not set, insight generation runs in degraded mode")
	}

	parser := dataset.NewParser(logger)
	reportService := services.NewReportService(database.GetDB(), store, parser, generator, cfg.Upload.MaxSize, logger)

	e := echo.New()

	// Hide Echo banner
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.Validator = validation.NewValidator()

	setupMiddleware(e, cfg)
	setupRoutes(e, reportService, logger)

	// Start server with graceful shutdown
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setupMiddleware(e *echo.Echo, cfg *config.Config) {
	// Logger middleware
	e.Use(echoMiddleware.LoggerWithConfig(echoMiddleware.LoggerConfig{
		Format:           `{"time":"${time_rfc3339}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
		CustomTimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}))

	// Recover middleware
	e.Use(echoMiddleware.Recover())

	// Request ID middleware
	e.Use(echoMiddleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORS(cfg.CORS))

	// Security headers middleware
	e.Use(middleware.SecurityHeaders())

	// Body limit slightly above the upload cap so the service layer can
	// answer with its own message instead of a bare 413.
	e.Use(echoMiddleware.BodyLimit("12M"))
}

func setupRoutes(e *echo.Echo, svc *services.ReportService, logger *zap.Logger) {
	api := e.Group("/api")

	handlers.NewReportHandler(svc, logger).RegisterRoutes(api)
	handlers.NewHealthHandler(svc).RegisterRoutes(api)
}
