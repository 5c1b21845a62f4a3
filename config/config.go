// ABOUTME: This file implements configuration management with environment variable support
// ABOUTME: Provides validation and defaults for the attentiond daemon
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Oracle    OracleConfig    `json:"oracle"`
	Cycle     CycleConfig     `json:"cycle"`
	Retention RetentionConfig `json:"retention"`
	Profile   ProfileConfig   `json:"profile"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"8764"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	AuthToken       string        `json:"-" env:"ATTENTIOND_TOKEN"`
}

type DatabaseConfig struct {
	Path string `json:"path" env:"DB_PATH" default:"data/attentiond.db"`
	// BusyTimeout is the bounded wait before writer/reader contention
	// surfaces as a transient error.
	BusyTimeout time.Duration `json:"busy_timeout" env:"DB_BUSY_TIMEOUT" default:"5s"`
}

type OracleConfig struct {
	Host    string        `json:"host" env:"ORACLE_HOST" default:"http://localhost:8765"`
	APIPath string        `json:"api_path" env:"ORACLE_API_PATH" default:"/api/v1/evaluate"`
	Timeout time.Duration `json:"timeout" env:"ORACLE_TIMEOUT" default:"180s"`
}

type CycleConfig struct {
	Interval          time.Duration `json:"interval" env:"CYCLE_INTERVAL" default:"1h"`
	RunImmediately    bool          `json:"run_immediately" env:"CYCLE_RUN_IMMEDIATELY" default:"true"`
	IngestConcurrency int           `json:"ingest_concurrency" env:"CYCLE_INGEST_CONCURRENCY" default:"4"`
	FetchRatePerSec   float64       `json:"fetch_rate_per_sec" env:"CYCLE_FETCH_RATE_PER_SEC" default:"2"`
	ScoreBatchSize    int           `json:"score_batch_size" env:"CYCLE_SCORE_BATCH_SIZE" default:"30"`
	ScoreConcurrency  int           `json:"score_concurrency" env:"CYCLE_SCORE_CONCURRENCY" default:"2"`
	RescoreWindow     time.Duration `json:"rescore_window" env:"CYCLE_RESCORE_WINDOW" default:"168h"`
}

type RetentionConfig struct {
	MaxAge        time.Duration `json:"max_age" env:"RETENTION_MAX_AGE" default:"168h"`
	RankThreshold float64       `json:"rank_threshold" env:"RETENTION_RANK_THRESHOLD" default:"3.0"`
}

type ProfileConfig struct {
	// SeedPath points at an interests YAML file imported on first start
	// when the topics table is empty. Empty disables seeding.
	SeedPath string `json:"seed_path" env:"PROFILE_SEED_PATH" default:"interests.yaml"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	var err error

	// Server config
	if config.Server.Port, err = getEnvInt("SERVER_PORT", 8764); err != nil {
		return err
	}
	if config.Server.ShutdownTimeout, err = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return err
	}
	if config.Server.ReadTimeout, err = getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	if config.Server.WriteTimeout, err = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return err
	}
	config.Server.AuthToken = os.Getenv("ATTENTIOND_TOKEN")

	// Database config
	config.Database.Path = getEnvString("DB_PATH", "data/attentiond.db")
	if config.Database.BusyTimeout, err = getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second); err != nil {
		return err
	}

	// Oracle config
	config.Oracle.Host = getEnvString("ORACLE_HOST", "http://localhost:8765")
	config.Oracle.APIPath = getEnvString("ORACLE_API_PATH", "/api/v1/evaluate")
	if config.Oracle.Timeout, err = getEnvDuration("ORACLE_TIMEOUT", 180*time.Second); err != nil {
		return err
	}

	// Cycle config
	if config.Cycle.Interval, err = getEnvDuration("CYCLE_INTERVAL", time.Hour); err != nil {
		return err
	}
	if config.Cycle.RunImmediately, err = getEnvBool("CYCLE_RUN_IMMEDIATELY", true); err != nil {
		return err
	}
	if config.Cycle.IngestConcurrency, err = getEnvInt("CYCLE_INGEST_CONCURRENCY", 4); err != nil {
		return err
	}
	if config.Cycle.FetchRatePerSec, err = getEnvFloat("CYCLE_FETCH_RATE_PER_SEC", 2); err != nil {
		return err
	}
	if config.Cycle.ScoreBatchSize, err = getEnvInt("CYCLE_SCORE_BATCH_SIZE", 30); err != nil {
		return err
	}
	if config.Cycle.ScoreConcurrency, err = getEnvInt("CYCLE_SCORE_CONCURRENCY", 2); err != nil {
		return err
	}
	if config.Cycle.RescoreWindow, err = getEnvDuration("CYCLE_RESCORE_WINDOW", 168*time.Hour); err != nil {
		return err
	}

	// Retention config
	if config.Retention.MaxAge, err = getEnvDuration("RETENTION_MAX_AGE", 168*time.Hour); err != nil {
		return err
	}
	if config.Retention.RankThreshold, err = getEnvFloat("RETENTION_RANK_THRESHOLD", 3.0); err != nil {
		return err
	}

	// Profile config
	config.Profile.SeedPath = getEnvString("PROFILE_SEED_PATH", "interests.yaml")

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if config.Database.BusyTimeout <= 0 {
		return fmt.Errorf("database busy timeout must be positive: %s", config.Database.BusyTimeout)
	}
	if config.Oracle.Host == "" {
		return fmt.Errorf("oracle host must not be empty")
	}
	if config.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive: %s", config.Oracle.Timeout)
	}
	if config.Cycle.Interval < time.Minute {
		return fmt.Errorf("cycle interval too short: %s", config.Cycle.Interval)
	}
	if config.Cycle.IngestConcurrency <= 0 {
		return fmt.Errorf("ingest concurrency must be positive: %d", config.Cycle.IngestConcurrency)
	}
	// A zero rate would make the ingest limiter wait forever.
	if config.Cycle.FetchRatePerSec <= 0 {
		return fmt.Errorf("fetch rate must be positive: %f", config.Cycle.FetchRatePerSec)
	}
	if config.Cycle.ScoreBatchSize <= 0 {
		return fmt.Errorf("score batch size must be positive: %d", config.Cycle.ScoreBatchSize)
	}
	if config.Cycle.ScoreConcurrency <= 0 {
		return fmt.Errorf("score concurrency must be positive: %d", config.Cycle.ScoreConcurrency)
	}
	if config.Retention.RankThreshold < 0 {
		return fmt.Errorf("retention rank threshold must not be negative: %f", config.Retention.RankThreshold)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, value)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, value)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", key, value)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, value)
	}
	return parsed, nil
}
