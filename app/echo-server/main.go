package main

import (
	"aspectInsight/app/echo-server/metrics"
	"aspectInsight/app/echo-server/router"
	"aspectInsight/business/abtest"
	"aspectInsight/business/aspect"
	"aspectInsight/business/prediction"
	"aspectInsight/domain"
	"aspectInsight/internal/middleware"
	"aspectInsight/internal/repository/csvstore"
	psqlRepo "aspectInsight/internal/repository/postgres"
	"aspectInsight/internal/rest"
	"aspectInsight/pkg/config"
	"aspectInsight/pkg/database"
	"aspectInsight/pkg/logger"
	predictMetrics "aspectInsight/pkg/metrics"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting "+cfg.App.Name, "version", cfg.App.Version)

	// Datasets: a broken source disables only its variant
	datasets, err := csvstore.LoadDatasets(cfg.Dataset.BaselinePath(), cfg.Dataset.AdvancedPath())
	if err != nil {
		logger.Error("Failed to load model datasets", "error", err)
	}
	for _, v := range []domain.Variant{domain.VariantA, domain.VariantB} {
		if !datasets.Has(v) {
			logger.Warn("Model variant unavailable, its listings will return 404", "variant", v)
		}
	}

	// Experiment log target
	logRepo, err := newLogRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to init experiment log", "error", err)
	}

	// Init metrics
	metrics.Init()
	predictMetrics.Init()

	// Init service
	assigner := abtest.NewAssigner()
	experimentLog := abtest.NewExperimentLog(context.Background(), logRepo, assigner)
	aspectService := aspect.NewAspectService(datasets, cfg.Server.DefaultTopK)
	predictionService := prediction.NewPredictionService(assigner, aspectService, experimentLog, cfg.Server.DefaultTopK)

	// Init handler
	predictionHandler := rest.NewPredictionHandler(predictionService, cfg.Server.RequestTimeout)
	aspectHandler := rest.NewAspectHandler(aspectService, cfg.Server.RequestTimeout)
	experimentHandler := rest.NewExperimentHandler(experimentLog)
	healthHandler := rest.NewHealthHandler(aspectService, experimentLog)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Trace())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Setup routes
	router.SetMetricsRoute(e)
	api := e.Group("/api/v1")
	router.SetPredictionRoutes(api, predictionHandler, aspectHandler)
	router.SetAspectRoutes(api, aspectHandler)
	router.SetExperimentRoutes(api, experimentHandler)
	router.SetHealthRoutes(api, healthHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped", "log_entries", experimentLog.Len(), "unpersisted", experimentLog.Unpersisted())
}

func newLogRepository(cfg *config.Config) (abtest.LogRepository, error) {
	switch cfg.ExperimentLog.Backend {
	case config.LogBackendPostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connected successfully")

		repo := psqlRepo.NewExperimentLogRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		path := cfg.ExperimentLogPath()
		logger.Info("Using CSV experiment log", "path", path)
		return csvstore.NewExperimentLogRepository(path), nil
	}
}
