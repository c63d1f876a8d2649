package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"env-monitor/internal/models"
	"env-monitor/internal/repository"
	"env-monitor/internal/sensors"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

var validate = validator.New()

// ReadingRequest is a manually entered gas reading
type ReadingRequest struct {
	Region string   `json:"region" validate:"required"`
	Gas    string   `json:"gas" validate:"required"`
	Value  *float64 `json:"value" validate:"required"`
}

// SensorService manages gas sensor readings and the sensor board
type SensorService struct {
	repo    repository.Repository
	catalog *sensors.Catalog
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSensorService creates a new sensor service. rng drives simulated readings.
func NewSensorService(repo repository.Repository, catalog *sensors.Catalog, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, rng *rand.Rand, now func() time.Time) *SensorService {
	if now == nil {
		now = time.Now
	}
	return &SensorService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		metrics: metricsCollector,
		now:     now,
		rng:     rng,
	}
}

// Catalog returns the gas and region catalogue
func (s *SensorService) Catalog() *sensors.Catalog {
	return s.catalog
}

// Seed stores one simulated reading per gas for every region
func (s *SensorService) Seed(ctx context.Context) error {
	return s.simulate(ctx, s.catalog.Regions)
}

// Refresh re-simulates readings for regions that have no manual reading
func (s *SensorService) Refresh(ctx context.Context) error {
	latest, err := s.repo.LatestReadings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest readings: %w", err)
	}

	manual := make(map[string]bool)
	for _, r := range latest {
		if r.Manual {
			manual[r.Region] = true
		}
	}

	regions := make([]string, 0, len(s.catalog.Regions))
	for _, region := range s.catalog.Regions {
		if !manual[region] {
			regions = append(regions, region)
		}
	}

	if err := s.simulate(ctx, regions); err != nil {
		return err
	}
	s.metrics.SensorRefreshTotal.Inc()

	s.logger.Debug(ctx, "[SENSOR_REFRESH] Simulated readings refreshed", logging.Fields{
		"regions": len(regions),
		"skipped": len(manual),
	})
	return nil
}

func (s *SensorService) simulate(ctx context.Context, regions []string) error {
	if len(regions) == 0 {
		return nil
	}

	s.rngMu.Lock()
	readings := s.catalog.SimulateReadings(s.rng, regions, s.now().UTC())
	s.rngMu.Unlock()

	if err := s.repo.SaveReadings(ctx, readings); err != nil {
		return fmt.Errorf("failed to save simulated readings: %w", err)
	}
	for _, r := range readings {
		s.metrics.RecordSensorReading(r.Gas, "simulated")
	}
	return nil
}

// AddReading validates and stores a manual reading, making it the latest
// value for its region and gas.
func (s *SensorService) AddReading(ctx context.Context, req ReadingRequest) (*models.GasReading, error) {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := strings.ToLower(fieldErrs[0].Field())
			return nil, &models.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s failed %q validation", field, fieldErrs[0].Tag()),
			}
		}
		return nil, &models.ValidationError{Field: "request", Message: err.Error()}
	}

	if !s.catalog.HasRegion(req.Region) {
		return nil, &models.ValidationError{Field: "region", Value: req.Region, Message: fmt.Sprintf("unknown region %q", req.Region)}
	}
	if _, ok := s.catalog.Gas(req.Gas); !ok {
		return nil, &models.ValidationError{Field: "gas", Value: req.Gas, Message: fmt.Sprintf("unknown gas %q", req.Gas)}
	}
	if math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) {
		return nil, &models.ValidationError{Field: "value", Value: fmt.Sprint(*req.Value), Message: "value must be a finite number"}
	}

	reading := &models.GasReading{
		Region:     req.Region,
		Gas:        req.Gas,
		Value:      *req.Value,
		Manual:     true,
		RecordedAt: s.now().UTC(),
	}
	if err := s.repo.SaveReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}
	s.metrics.RecordSensorReading(reading.Gas, "manual")

	s.logger.Info(ctx, "[SENSOR_READING] Manual reading recorded", logging.Fields{
		"reading_id": reading.ID,
		"region":     reading.Region,
		"gas":        reading.Gas,
		"value":      reading.Value,
	})

	return reading, nil
}

// Board returns the latest levels for the selected regions and gases.
// Names that are not in the catalogue are rejected.
func (s *SensorService) Board(ctx context.Context, sel sensors.Selection) ([]models.SensorRow, error) {
	for _, region := range sel.Regions {
		if !s.catalog.HasRegion(region) {
			return nil, &models.ValidationError{Field: "regions", Value: region, Message: fmt.Sprintf("unknown region %q", region)}
		}
	}
	for _, gas := range sel.Gases {
		if _, ok := s.catalog.Gas(gas); !ok {
			return nil, &models.ValidationError{Field: "gases", Value: gas, Message: fmt.Sprintf("unknown gas %q", gas)}
		}
	}

	latest, err := s.repo.LatestReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest readings: %w", err)
	}

	return s.catalog.Board(latest, sel), nil
}
