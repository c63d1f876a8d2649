package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"env-monitor/internal/config"
	"env-monitor/internal/repository"
	"env-monitor/internal/services"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

func main() {
	// Parse command-line flags
	file := flag.String("file", "", "Methane CSV file to ingest (timestamp,location,measurement per line)")
	batchSize := flag.Int("batch-size", services.DefaultBatchSize, "Number of observations to store per batch")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: ingester -file <methane.csv> [-batch-size N]")
		os.Exit(2)
	}

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
	if cfg.Database.Driver == repository.DriverMemory {
		fmt.Fprintln(os.Stderr, "ingester needs persistent storage: set STORAGE_DRIVER to postgres or sqlite")
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("env-monitor-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting methane data ingestion", logging.Fields{
		"version":    "1.0.0",
		"file":       *file,
		"batch_size": *batchSize,
		"driver":     cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("env_monitor_ingester", prometheus.NewRegistry())

	repo, closeRepo, err := repository.Open(ctx, cfg.Database.Connection(), true, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to open storage", logging.Fields{}, err)
	}
	defer closeRepo()

	ingestionService := services.NewIngestionService(repo, logger, metricsCollector)

	result, err := ingestionService.IngestFile(ctx, *file, *batchSize)
	if err != nil {
		logger.Error(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"file": *file,
		}, err)
		closeRepo()
		os.Exit(1)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Source:             %s\n", result.Source)
	fmt.Printf("Total Lines:        %d\n", result.TotalLines)
	fmt.Printf("Accepted:           %d\n", result.Accepted)
	fmt.Printf("Discarded:          %d\n", result.Discarded)
	fmt.Printf("Batches:            %d\n", result.Batches)
	fmt.Printf("Duration:           %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Printf("Records/Second:     %.2f\n", float64(result.Accepted)/secs)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"accepted":         result.Accepted,
		"discarded":        result.Discarded,
		"duration_seconds": result.Duration.Seconds(),
	})
}
