package repository

import (
	"context"
	"fmt"
	"time"

	"env-monitor/internal/models"
)

// Repository provides data access for methane observations and gas readings
type Repository interface {
	// Observation operations
	SaveObservations(ctx context.Context, observations []models.Observation) error
	ListObservations(ctx context.Context, filter ObservationFilter) ([]models.Observation, error)
	CountObservations(ctx context.Context) (int, error)

	// Sensor operations
	SaveReading(ctx context.Context, reading *models.GasReading) error
	SaveReadings(ctx context.Context, readings []*models.GasReading) error
	LatestReadings(ctx context.Context) ([]models.GasReading, error)
	GetReading(ctx context.Context, id string) (*models.GasReading, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// ObservationFilter defines filters for querying observations
type ObservationFilter struct {
	Start *time.Time
	End   *time.Time
}

func (f ObservationFilter) matches(obs models.Observation) bool {
	if f.Start != nil && obs.ObservedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && obs.ObservedAt.After(*f.End) {
		return false
	}
	return true
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
