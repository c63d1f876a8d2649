package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"env-monitor/internal/models"
)

type observationKey struct {
	observedAt time.Time
	location   string
}

type readingKey struct {
	region string
	gas    string
}

// MemoryRepository is a concurrency-safe in-memory Repository
type MemoryRepository struct {
	mu sync.RWMutex

	observations map[observationKey]models.Observation
	readings     map[string]models.GasReading
	latest       map[readingKey]string // region/gas -> reading id
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		observations: make(map[observationKey]models.Observation),
		readings:     make(map[string]models.GasReading),
		latest:       make(map[readingKey]string),
	}
}

// SaveObservations upserts observations keyed by timestamp and location
func (m *MemoryRepository) SaveObservations(ctx context.Context, observations []models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, obs := range observations {
		key := observationKey{observedAt: obs.ObservedAt.UTC(), location: obs.Location}
		if existing, ok := m.observations[key]; ok {
			existing.Measurement = obs.Measurement
			m.observations[key] = existing
			continue
		}

		if obs.ID == "" {
			obs.ID = uuid.NewString()
		}
		obs.ObservedAt = key.observedAt
		obs.CreatedAt = now
		m.observations[key] = obs
	}

	return nil
}

// ListObservations returns observations ordered by timestamp
func (m *MemoryRepository) ListObservations(ctx context.Context, filter ObservationFilter) ([]models.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Observation, 0, len(m.observations))
	for _, obs := range m.observations {
		if filter.matches(obs) {
			result = append(result, obs)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ObservedAt.Equal(result[j].ObservedAt) {
			return result[i].ObservedAt.Before(result[j].ObservedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CountObservations returns the number of stored observations
func (m *MemoryRepository) CountObservations(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observations), nil
}

// SaveReading stores a reading and makes it the latest for its region and gas
// unless a newer one is already present.
func (m *MemoryRepository) SaveReading(ctx context.Context, reading *models.GasReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveReadingLocked(reading)
	return nil
}

// SaveReadings stores readings atomically
func (m *MemoryRepository) SaveReadings(ctx context.Context, readings []*models.GasReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, reading := range readings {
		m.saveReadingLocked(reading)
	}
	return nil
}

func (m *MemoryRepository) saveReadingLocked(reading *models.GasReading) {
	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}
	reading.RecordedAt = reading.RecordedAt.UTC()
	m.readings[reading.ID] = *reading

	key := readingKey{region: reading.Region, gas: reading.Gas}
	if currentID, ok := m.latest[key]; ok {
		current := m.readings[currentID]
		if current.RecordedAt.After(reading.RecordedAt) {
			return
		}
	}
	m.latest[key] = reading.ID
}

// LatestReadings returns the most recent reading for every region and gas pair
func (m *MemoryRepository) LatestReadings(ctx context.Context) ([]models.GasReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.GasReading, 0, len(m.latest))
	for _, id := range m.latest {
		result = append(result, m.readings[id])
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Region != result[j].Region {
			return result[i].Region < result[j].Region
		}
		return result[i].Gas < result[j].Gas
	})

	return result, nil
}

// GetReading retrieves a gas reading by id
func (m *MemoryRepository) GetReading(ctx context.Context, id string) (*models.GasReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reading, ok := m.readings[id]
	if !ok {
		return nil, &NotFoundError{
			Resource: "gas_reading",
			ID:       id,
		}
	}
	return &reading, nil
}

// HealthCheck always succeeds for the memory backend
func (m *MemoryRepository) HealthCheck(ctx context.Context) error {
	return nil
}
