package config

import (
	"testing"
	"time"

	"env-monitor/internal/repository"
	"env-monitor/pkg/database"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SENSOR_REFRESH_INTERVAL", "")
	t.Setenv("DATASET_RELOAD_INTERVAL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != repository.DriverMemory {
		t.Errorf("Database.Driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Sensors.RefreshInterval != 0 {
		t.Errorf("Sensors.RefreshInterval = %v, want 0", cfg.Sensors.RefreshInterval)
	}
	if cfg.Dataset.ReloadInterval != time.Minute {
		t.Errorf("Dataset.ReloadInterval = %v, want 1m", cfg.Dataset.ReloadInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("SENSOR_REFRESH_INTERVAL", "2m")
	t.Setenv("SENSOR_SEED", "7")
	t.Setenv("DATASET_RELOAD_INTERVAL", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ListenAddr() != "127.0.0.1:9090" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.Database.Driver != database.DriverSQLite || cfg.Database.Path != ":memory:" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Sensors.RefreshInterval != 2*time.Minute || cfg.Sensors.Seed != 7 {
		t.Errorf("Sensors = %+v", cfg.Sensors)
	}
	if cfg.Dataset.ReloadInterval != 0 {
		t.Errorf("Dataset.ReloadInterval = %v, want disabled", cfg.Dataset.ReloadInterval)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":             "eighty",
		"DB_CONN_MAX_LIFETIME":    "forever",
		"SENSOR_REFRESH_INTERVAL": "soon",
		"DATASET_RELOAD_INTERVAL": "often",
		"SENSOR_SEED":             "x",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() with %s=%s should fail", key, value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: repository.DriverMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory ok", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"postgres without host", func(c *Config) {
			c.Database.Driver = database.DriverPostgres
			c.Database.Database = "env"
			c.Database.MaxOpenConns = 1
		}, true},
		{"postgres ok", func(c *Config) {
			c.Database.Driver = database.DriverPostgres
			c.Database.Host = "db"
			c.Database.Database = "env"
			c.Database.MaxOpenConns = 1
		}, false},
		{"sqlite without path", func(c *Config) { c.Database.Driver = database.DriverSQLite }, true},
		{"negative refresh", func(c *Config) { c.Sensors.RefreshInterval = -time.Second }, true},
		{"negative reload", func(c *Config) { c.Dataset.ReloadInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_Connection(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:       database.DriverPostgres,
		Host:         "db",
		Port:         5433,
		User:         "monitor",
		Database:     "env",
		SSLMode:      "disable",
		MaxOpenConns: 10,
	}

	conn := cfg.Connection()
	dsn, err := conn.DSN()
	if err != nil {
		t.Fatalf("DSN() error = %v", err)
	}
	if dsn != "host=db port=5433 user=monitor password= dbname=env sslmode=disable" {
		t.Errorf("DSN() = %q", dsn)
	}
	if conn.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", conn.MaxOpenConns)
	}
}
