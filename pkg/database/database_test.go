package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"env-monitor/pkg/logging"
	"env-monitor/pkg/metrics"
)

func openMemory(t *testing.T) *DB {
	t.Helper()

	cfg := &Config{Driver: DriverSQLite, Path: ":memory:"}
	db, err := Open(cfg, logging.NewDiscardLogger(), metrics.NewCollector("env_monitor_test", prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "postgres",
			cfg: Config{
				Driver: DriverPostgres, Host: "db", Port: 5432, User: "u",
				Password: "p", Database: "env", SSLMode: "disable",
			},
			want: "host=db port=5432 user=u password=p dbname=env sslmode=disable",
		},
		{
			name: "sqlite",
			cfg:  Config{Driver: DriverSQLite, Path: "/tmp/env.db"},
			want: "/tmp/env.db",
		},
		{
			name:    "unknown",
			cfg:     Config{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, "up"); err != nil {
		t.Fatalf("Migrate(up) error = %v", err)
	}
	// Applying twice is a no-op
	if err := db.Migrate(ctx, "up"); err != nil {
		t.Fatalf("second Migrate(up) error = %v", err)
	}

	var count int
	if err := db.GetContext(ctx, "count_tables", &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?)",
		"methane_observations", "gas_readings"); err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if count != 2 {
		t.Errorf("tables = %d, want 2", count)
	}

	if err := db.Migrate(ctx, "down"); err != nil {
		t.Fatalf("Migrate(down) error = %v", err)
	}
	if err := db.GetContext(ctx, "count_tables", &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		"methane_observations"); err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if count != 0 {
		t.Errorf("tables after down = %d, want 0", count)
	}
}

func TestMigrate_InvalidDirection(t *testing.T) {
	db := openMemory(t)
	if err := db.Migrate(context.Background(), "sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestHealthCheck(t *testing.T) {
	db := openMemory(t)
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if db.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q", db.Driver())
	}
}
