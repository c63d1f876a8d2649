package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"env-monitor/internal/config"
	"env-monitor/internal/greenhouse"
	"env-monitor/internal/handlers"
	"env-monitor/internal/repository"
	"env-monitor/internal/sensors"
	"env-monitor/internal/services"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("env-monitor-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting environmental monitoring API server", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"storage_driver": cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("env_monitor", prometheus.DefaultRegisterer)

	// Storage
	repo, closeRepo, err := repository.Open(ctx, cfg.Database.Connection(), true, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open storage", logging.Fields{
			"driver": cfg.Database.Driver,
		}, err)
	}
	defer closeRepo()

	// Methane dataset
	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)
	if cfg.Dataset.Path != "" {
		if _, err := ingestionService.IngestFile(ctx, cfg.Dataset.Path, services.DefaultBatchSize); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to ingest methane dataset", logging.Fields{
				"path": cfg.Dataset.Path,
			}, err)
		}
	} else if _, err := ingestionService.SeedIfEmpty(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to seed methane dataset", logging.Fields{}, err)
	}
	methaneService := services.NewMethaneService(repo, logger, metricsCollector, time.Now)

	// Gas sensors
	catalog, err := sensors.DefaultCatalog()
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load sensor catalog", logging.Fields{}, err)
	}
	sensorService := services.NewSensorService(repo, catalog, logger, metricsCollector,
		rand.New(rand.NewSource(cfg.Sensors.Seed)), time.Now)
	if err := sensorService.Seed(ctx); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to seed sensor readings", logging.Fields{}, err)
	}

	// Background jobs
	scheduler := services.NewScheduler(logger)
	if err := scheduler.Every("sensor_refresh", cfg.Sensors.RefreshInterval, sensorService.Refresh); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to schedule sensor refresh", logging.Fields{}, err)
	}
	if err := scheduler.Every("dataset_reload", cfg.Dataset.ReloadInterval, methaneService.Reload); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to schedule dataset reload", logging.Fields{}, err)
	}

	report, err := greenhouse.DefaultReport()
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load greenhouse report", logging.Fields{}, err)
	}

	// Handlers
	handler, err := handlers.NewHandler(methaneService, sensorService, report, repo, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to build handlers", logging.Fields{}, err)
	}

	router := mux.NewRouter()
	handler.RegisterRoutes(router, prometheus.DefaultGatherer)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server stopped with error", logging.Fields{}, err)
		closeRepo()
		os.Exit(1)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
