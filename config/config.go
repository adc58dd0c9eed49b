package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"questkit/adapters/redis"
	"questkit/adapters/sqlx"
	"questkit/core"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" env:"QUESTKIT_ENV"`
	Profile     string      `json:"profile" env:"QUESTKIT_PROFILE"`

	// Notification delivery endpoint
	Delivery DeliveryConfig `json:"delivery"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Windowed leaderboard index
	Leaderboard LeaderboardConfig `json:"leaderboard"`

	// Level threshold curve
	Levels LevelsConfig `json:"levels"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Periodic badge re-evaluation
	Scheduler SchedulerConfig `json:"scheduler"`

	// Outbound event delivery
	Webhook WebhookConfig `json:"webhook"`
}

// DeliveryConfig holds the WebSocket notification endpoint configuration
type DeliveryConfig struct {
	Address         string        `json:"address" env:"QUESTKIT_DELIVERY_ADDR"`
	Path            string        `json:"path" env:"QUESTKIT_DELIVERY_PATH"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"QUESTKIT_DELIVERY_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string      `json:"adapter" env:"QUESTKIT_STORAGE_ADAPTER"`
	SQL     sqlx.Config `json:"sql,omitempty"`
	File    FileConfig  `json:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" env:"QUESTKIT_STORAGE_FILE_PATH"`
}

// LeaderboardConfig holds the optional Redis score index configuration.
// Disabled, windowed leaderboards aggregate from the ledger on every read.
type LeaderboardConfig struct {
	IndexEnabled bool         `json:"index_enabled" env:"QUESTKIT_LEADERBOARD_INDEX_ENABLED"`
	Redis        redis.Config `json:"redis,omitempty"`
}

// LevelsConfig carries the level threshold table. Empty means the stock
// curve.
type LevelsConfig struct {
	Thresholds core.LevelTable `json:"thresholds,omitempty"`
}

// Table resolves the configured thresholds, defaulting to the stock curve.
func (l LevelsConfig) Table() core.LevelTable {
	if len(l.Thresholds) == 0 {
		return core.DefaultLevelTable()
	}
	return l.Thresholds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" env:"QUESTKIT_LOG_LEVEL"`
	Format     string            `json:"format" env:"QUESTKIT_LOG_FORMAT"`
	Output     string            `json:"output" env:"QUESTKIT_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SchedulerConfig holds the periodic badge sweep configuration
type SchedulerConfig struct {
	Enabled       bool          `json:"enabled" env:"QUESTKIT_SCHEDULER_ENABLED"`
	SweepInterval time.Duration `json:"sweep_interval" env:"QUESTKIT_SCHEDULER_SWEEP_INTERVAL"`
	BatchSize     int           `json:"batch_size" env:"QUESTKIT_SCHEDULER_BATCH_SIZE"`
}

// WebhookConfig holds outbound event delivery configuration
type WebhookConfig struct {
	Endpoints []string      `json:"endpoints,omitempty" env:"QUESTKIT_WEBHOOK_ENDPOINTS"`
	Timeout   time.Duration `json:"timeout" env:"QUESTKIT_WEBHOOK_TIMEOUT"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load from environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Delivery: DeliveryConfig{
			Address:         ":8080",
			Path:            "/ws/notifications",
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			SQL:     sqlx.DefaultConfig(sqlx.DriverPostgres),
			File: FileConfig{
				Path: "./data/questkit.json",
			},
		},
		Leaderboard: LeaderboardConfig{
			IndexEnabled: false,
			Redis:        redis.DefaultConfig(),
		},
		Levels: LevelsConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			SweepInterval: time.Hour,
			BatchSize:     100,
		},
		Webhook: WebhookConfig{
			Endpoints: []string{},
			Timeout:   2 * time.Second,
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	if err := c.Delivery.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("delivery config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Levels.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("levels config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("scheduler config: %v", err))
	}

	if err := c.Webhook.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("webhook config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = "[REDACTED]"
	}
	if cfg.Leaderboard.Redis.Password != "" {
		cfg.Leaderboard.Redis.Password = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
