package repository

import (
	"context"
	"fmt"

	"env-monitor/pkg/database"
	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

// DriverMemory selects the in-memory backend, which needs no database
const DriverMemory = "memory"

// Open builds the Repository selected by cfg.Driver. With migrate set the
// embedded schema is applied first. The returned close func releases the
// underlying connection pool.
func Open(ctx context.Context, cfg *database.Config, migrate bool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (Repository, func() error, error) {
	if cfg.Driver == DriverMemory {
		logger.Info(ctx, "[STORAGE_INIT] Using in-memory storage", nil)
		return NewMemoryRepository(), func() error { return nil }, nil
	}

	db, err := database.Open(cfg, logger, metricsCollector)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		if err := db.Migrate(ctx, "up"); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate %s storage: %w", cfg.Driver, err)
		}
	}

	return NewSQLRepository(db, logger, metricsCollector), db.Close, nil
}
