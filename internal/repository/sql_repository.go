package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"env-monitor/internal/models"
	"env-monitor/pkg/database"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

// sqlRepository implements Repository on top of sqlx (postgres or sqlite)
type sqlRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSQLRepository creates a new SQL backed repository
func NewSQLRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) Repository {
	return &sqlRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SaveObservations upserts observations in a single transaction
func (r *sqlRepository) SaveObservations(ctx context.Context, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	timer := r.metrics.NewTimer(r.metrics.DBQueryDuration.WithLabelValues("upsert_observations"))
	defer func() {
		duration := timer.ObserveDuration()
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch upsert completed", logging.Fields{
			"count":       len(observations),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO methane_observations (id, observed_at, location, measurement, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (observed_at, location) DO UPDATE SET
			measurement = EXCLUDED.measurement
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, obs := range observations {
		id := obs.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, obs.ObservedAt.UTC(), obs.Location, obs.Measurement, now); err != nil {
			r.metrics.RecordDBError("exec_error")
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListObservations returns observations ordered by timestamp
func (r *sqlRepository) ListObservations(ctx context.Context, filter ObservationFilter) ([]models.Observation, error) {
	query := `
		SELECT id, observed_at, location, measurement, created_at
		FROM methane_observations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Start != nil {
		query += " AND observed_at >= ?"
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		query += " AND observed_at <= ?"
		args = append(args, filter.End.UTC())
	}
	query += " ORDER BY observed_at, id"

	var observations []models.Observation
	if err := r.db.SelectContext(ctx, "list_observations", &observations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}

	for i := range observations {
		observations[i].ObservedAt = observations[i].ObservedAt.UTC()
	}

	return observations, nil
}

// CountObservations returns the number of stored observations
func (r *sqlRepository) CountObservations(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, "count_observations", &count, "SELECT COUNT(*) FROM methane_observations"); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// SaveReading stores a single gas reading
func (r *sqlRepository) SaveReading(ctx context.Context, reading *models.GasReading) error {
	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, "insert_reading", `
		INSERT INTO gas_readings (id, region, gas, value, manual, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		reading.ID,
		reading.Region,
		reading.Gas,
		reading.Value,
		reading.Manual,
		reading.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save reading: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_SAVE_READING] Reading stored", logging.Fields{
		"region": reading.Region,
		"gas":    reading.Gas,
	})

	return nil
}

// SaveReadings stores readings in one transaction
func (r *sqlRepository) SaveReadings(ctx context.Context, readings []*models.GasReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO gas_readings (id, region, gas, value, manual, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reading := range readings {
		if reading.ID == "" {
			reading.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			reading.ID,
			reading.Region,
			reading.Gas,
			reading.Value,
			reading.Manual,
			reading.RecordedAt.UTC(),
		); err != nil {
			r.metrics.RecordDBError("exec_error")
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestReadings returns the most recent reading for every region and gas pair
func (r *sqlRepository) LatestReadings(ctx context.Context) ([]models.GasReading, error) {
	query := `
		SELECT g.id, g.region, g.gas, g.value, g.manual, g.recorded_at
		FROM gas_readings g
		WHERE NOT EXISTS (
			SELECT 1 FROM gas_readings n
			WHERE n.region = g.region
			  AND n.gas = g.gas
			  AND (n.recorded_at > g.recorded_at
			       OR (n.recorded_at = g.recorded_at AND n.id > g.id))
		)
		ORDER BY g.region, g.gas
	`

	var readings []models.GasReading
	if err := r.db.SelectContext(ctx, "latest_readings", &readings, query); err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	for i := range readings {
		readings[i].RecordedAt = readings[i].RecordedAt.UTC()
	}

	return readings, nil
}

// GetReading retrieves a gas reading by id
func (r *sqlRepository) GetReading(ctx context.Context, id string) (*models.GasReading, error) {
	var reading models.GasReading
	err := r.db.GetContext(ctx, "get_reading", &reading, `
		SELECT id, region, gas, value, manual, recorded_at
		FROM gas_readings
		WHERE id = ?
	`, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "gas_reading",
			ID:       id,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}

	reading.RecordedAt = reading.RecordedAt.UTC()
	return &reading, nil
}

// HealthCheck performs a repository health check
func (r *sqlRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
