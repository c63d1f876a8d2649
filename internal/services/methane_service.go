package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"env-monitor/internal/aggregator"
	"env-monitor/internal/models"
	"env-monitor/internal/repository"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

// MethaneService serves aggregated views over the stored methane dataset.
// The dataset is loaded on first use and cached until Reload replaces it.
type MethaneService struct {
	repo    repository.Repository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time

	mu           sync.RWMutex
	observations []models.Observation
	loaded       bool
}

// NewMethaneService creates a new methane service. now supplies the
// reference year for windowed views; nil means time.Now.
func NewMethaneService(repo repository.Repository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, now func() time.Time) *MethaneService {
	if now == nil {
		now = time.Now
	}
	return &MethaneService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		now:     now,
	}
}

// Reload re-reads the stored dataset and replaces the cached copy, picking
// up rows written by other processes sharing the database.
func (s *MethaneService) Reload(ctx context.Context) error {
	observations, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	previous := len(s.observations)
	s.observations = observations
	s.loaded = true
	s.mu.Unlock()

	if previous != len(observations) {
		s.logger.Info(ctx, "[METHANE_RELOAD] Methane dataset changed", logging.Fields{
			"previous":     previous,
			"observations": len(observations),
		})
	}
	return nil
}

func (s *MethaneService) load(ctx context.Context) ([]models.Observation, error) {
	observations, err := s.repo.ListObservations(ctx, repository.ObservationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load methane observations: %w", err)
	}
	s.metrics.DatasetObservations.Set(float64(len(observations)))
	return observations, nil
}

func (s *MethaneService) dataset(ctx context.Context) ([]models.Observation, error) {
	s.mu.RLock()
	if s.loaded {
		observations := s.observations
		s.mu.RUnlock()
		return observations, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.observations, nil
	}

	observations, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.observations = observations
	s.loaded = true

	s.logger.Info(ctx, "[METHANE_LOAD] Methane dataset loaded", logging.Fields{
		"observations": len(observations),
	})

	return observations, nil
}

func (s *MethaneService) referenceYear() int {
	return s.now().UTC().Year()
}

// Yearly returns per-year summaries restricted to the window ending at the current year
func (s *MethaneService) Yearly(ctx context.Context, window aggregator.YearWindow) ([]models.YearlySummary, error) {
	observations, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues("yearly"))
	defer timer.ObserveDuration()

	yearly := aggregator.AggregateByYear(observations)
	return aggregator.FilterByRecentYears(yearly, window, s.referenceYear()), nil
}

// Monthly returns the month-of-year averages across the whole dataset
func (s *MethaneService) Monthly(ctx context.Context) ([]models.MonthlySummary, error) {
	observations, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues("monthly"))
	defer timer.ObserveDuration()

	return aggregator.AggregateByMonth(observations), nil
}

// Trend returns the first-to-last trend over the windowed yearly summaries
func (s *MethaneService) Trend(ctx context.Context, window aggregator.YearWindow) (models.TrendResult, error) {
	yearly, err := s.Yearly(ctx, window)
	if err != nil {
		return models.TrendResult{}, err
	}
	return aggregator.ComputeTrend(yearly), nil
}

// Analysis returns the headline report over the windowed yearly summaries
func (s *MethaneService) Analysis(ctx context.Context, window aggregator.YearWindow) (aggregator.Analysis, error) {
	yearly, err := s.Yearly(ctx, window)
	if err != nil {
		return aggregator.Analysis{}, err
	}
	return aggregator.Analyze(yearly), nil
}
