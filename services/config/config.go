// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the backtest service.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Job scheduling
	MaxConcurrentJobs int    `envconfig:"MAX_CONCURRENT_JOBS" default:"4"`
	JobStore          string `envconfig:"JOB_STORE" default:"memory"` // memory | sqlite
	SQLitePath        string `envconfig:"SQLITE_PATH" default:"backtest_jobs.db"`

	// Compute device
	DeviceEnabled bool `envconfig:"DEVICE_ENABLED" default:"true"`
	DeviceWorkers int  `envconfig:"DEVICE_WORKERS" default:"0"` // 0 = NumCPU

	// Per-job symbol fan-out
	SymbolWorkers int `envconfig:"SYMBOL_WORKERS" default:"4"`

	// Market data
	DataSource string `envconfig:"DATA_SOURCE" default:"synthetic"` // clickhouse | parquet | synthetic
	ParquetDir string `envconfig:"PARQUET_DIR" default:"data"`

	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`

	ShutdownTimeoutSec int `envconfig:"SHUTDOWN_TIMEOUT_SEC" default:"30"`
}

// ClickHouseConfig holds connection settings for the market data warehouse.
type ClickHouseConfig struct {
	Addr     string `envconfig:"ADDR" default:"localhost:9000"`
	Database string `envconfig:"DATABASE" default:"backtest"`
	Username string `envconfig:"USERNAME" default:"default"`
	Password string `envconfig:"PASSWORD" default:""`
}

// Load reads configuration from a .env file (if present) and the environment.
// Environment variables use the BACKTEST_ prefix.
func Load() (*Config, error) {
	// Missing .env is fine, env vars still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BACKTEST", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if cfg.MaxConcurrentJobs < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_JOBS must be >= 1, got %d", cfg.MaxConcurrentJobs)
	}
	if cfg.SymbolWorkers < 1 {
		return nil, fmt.Errorf("SYMBOL_WORKERS must be >= 1, got %d", cfg.SymbolWorkers)
	}

	return &cfg, nil
}
