package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"env-monitor/internal/repository"
	"env-monitor/pkg/database"
)

// Config holds environment-driven settings for all binaries
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Dataset  DatasetConfig
	Sensors  SensorConfig
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	Path            string // sqlite file path or ":memory:"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level string
}

// DatasetConfig points at the methane dataset loaded at startup.
// An empty Path means the embedded sample is used. ReloadInterval controls
// how often the served dataset is re-read from storage; zero disables it.
type DatasetConfig struct {
	Path           string
	ReloadInterval time.Duration
}

// SensorConfig configures the simulated gas sensors
type SensorConfig struct {
	RefreshInterval time.Duration
	Seed            int64
}

// LoadConfig reads configuration from environment variables (optionally .env)
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := &Config{
		Server: ServerConfig{
			Host:         getenvDefault("SERVER_HOST", "0.0.0.0"),
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getenvDefault("STORAGE_DRIVER", repository.DriverMemory)),
			Host:            getenvDefault("DB_HOST", "localhost"),
			Port:            5432,
			User:            getenvDefault("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			Database:        getenvDefault("DB_NAME", "env_monitor"),
			SSLMode:         getenvDefault("DB_SSLMODE", "disable"),
			Path:            getenvDefault("SQLITE_PATH", "env-monitor.db"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		Logging: LoggingConfig{
			Level: getenvDefault("LOG_LEVEL", "info"),
		},
		Dataset: DatasetConfig{
			Path:           os.Getenv("METHANE_DATASET"),
			ReloadInterval: time.Minute,
		},
		Sensors: SensorConfig{
			RefreshInterval: 0,
			Seed:            time.Now().UnixNano(),
		},
	}

	var err error
	if cfg.Server.Port, err = getenvInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getenvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getenvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getenvDuration("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = getenvInt("DB_PORT", cfg.Database.Port); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns, err = getenvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = getenvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxLifetime, err = getenvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime); err != nil {
		return nil, err
	}
	if cfg.Database.ConnMaxIdleTime, err = getenvDuration("DB_CONN_MAX_IDLE_TIME", cfg.Database.ConnMaxIdleTime); err != nil {
		return nil, err
	}
	if cfg.Dataset.ReloadInterval, err = getenvDuration("DATASET_RELOAD_INTERVAL", cfg.Dataset.ReloadInterval); err != nil {
		return nil, err
	}
	if cfg.Sensors.RefreshInterval, err = getenvDuration("SENSOR_REFRESH_INTERVAL", cfg.Sensors.RefreshInterval); err != nil {
		return nil, err
	}
	if v := os.Getenv("SENSOR_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SENSOR_SEED: %s", v)
		}
		cfg.Sensors.Seed = seed
	}

	return cfg, nil
}

// Validate checks the loaded configuration for inconsistent values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case repository.DriverMemory:
	case database.DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("postgres storage requires DB_HOST and DB_NAME")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %d", c.Database.MaxOpenConns)
		}
	case database.DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("sqlite storage requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %q", c.Database.Driver)
	}

	if c.Dataset.ReloadInterval < 0 {
		return fmt.Errorf("invalid DATASET_RELOAD_INTERVAL: %s", c.Dataset.ReloadInterval)
	}
	if c.Sensors.RefreshInterval < 0 {
		return fmt.Errorf("invalid SENSOR_REFRESH_INTERVAL: %s", c.Sensors.RefreshInterval)
	}

	return nil
}

// Connection converts the settings into a database.Config
func (c DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		Path:            c.Path,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}

// ListenAddr returns the host:port string for the HTTP server
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
