package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
	"env-monitor/internal/repository"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

//go:embed data/methane_sample.csv
var sampleDataset []byte

// DefaultBatchSize is used when a non-positive batch size is requested
const DefaultBatchSize = 500

// IngestionService loads methane datasets into the repository
type IngestionService struct {
	repo    repository.Repository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Source     string
	TotalLines int
	Accepted   int
	Discarded  int
	Batches    int
	Duration   time.Duration
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.Repository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile ingests a methane CSV file from disk
func (s *IngestionService) IngestFile(ctx context.Context, path string, batchSize int) (*IngestionResult, error) {
	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordIngestionError("file_error")
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return s.ingest(ctx, path, file, batchSize)
}

// IngestReader ingests methane records read from r
func (s *IngestionService) IngestReader(ctx context.Context, r io.Reader, batchSize int) (*IngestionResult, error) {
	return s.ingest(ctx, "reader", r, batchSize)
}

// SeedIfEmpty loads the embedded sample dataset when no observations are stored yet.
// It reports whether anything was ingested.
func (s *IngestionService) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := s.repo.CountObservations(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count observations: %w", err)
	}
	if count > 0 {
		s.logger.Debug(ctx, "[INGEST_SEED_SKIP] Observations already present", logging.Fields{
			"count": count,
		})
		return false, nil
	}

	if _, err := s.ingest(ctx, "embedded", bytes.NewReader(sampleDataset), DefaultBatchSize); err != nil {
		return false, err
	}
	return true, nil
}

func (s *IngestionService) ingest(ctx context.Context, source string, r io.Reader, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"source":     source,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	observations, stats, err := aggregator.ParseReader(r)
	if err != nil {
		s.metrics.RecordIngestionError("read_error")
		return nil, err
	}

	result := &IngestionResult{
		Source:     source,
		TotalLines: stats.TotalLines,
		Discarded:  stats.Discarded,
	}
	s.metrics.IngestionDiscardedTotal.Add(float64(stats.Discarded))

	for start := 0; start < len(observations); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		batch := observations[start:end]

		if err := s.saveBatch(ctx, batch); err != nil {
			s.metrics.RecordIngestionError("batch_error")
			s.logger.Error(ctx, "[INGEST_BATCH_ERROR] Failed to store batch", logging.Fields{
				"source":      source,
				"batch_start": start,
				"batch_size":  len(batch),
				"stage":       "BATCH_INSERT",
			}, err)
			return nil, fmt.Errorf("failed to insert batch at record %d: %w", start, err)
		}

		result.Accepted += len(batch)
		result.Batches++
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"source":           source,
		"total_lines":      result.TotalLines,
		"accepted":         result.Accepted,
		"discarded":        result.Discarded,
		"batches":          result.Batches,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (s *IngestionService) saveBatch(ctx context.Context, batch []models.Observation) error {
	if err := s.repo.SaveObservations(ctx, batch); err != nil {
		return err
	}
	s.metrics.IngestionBatchSize.Observe(float64(len(batch)))
	s.metrics.IngestionRecordsTotal.Add(float64(len(batch)))
	return nil
}
