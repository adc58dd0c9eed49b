package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questkit/core"
)

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.False(t, cfg.Leaderboard.IndexEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, time.Hour, cfg.Scheduler.SweepInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	os.Setenv("QUESTKIT_ENV", "staging")
	os.Setenv("QUESTKIT_STORAGE_ADAPTER", "sql")
	os.Setenv("QUESTKIT_SQL_DSN", "postgres://localhost/questkit")
	os.Setenv("QUESTKIT_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("QUESTKIT_ENV")
		os.Unsetenv("QUESTKIT_STORAGE_ADAPTER")
		os.Unsetenv("QUESTKIT_SQL_DSN")
		os.Unsetenv("QUESTKIT_LOG_LEVEL")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, "sql", cfg.Storage.Adapter)
	assert.Equal(t, "postgres://localhost/questkit", cfg.Storage.SQL.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvDurationsAndLists(t *testing.T) {
	os.Setenv("QUESTKIT_SCHEDULER_SWEEP_INTERVAL", "30m")
	os.Setenv("QUESTKIT_SCHEDULER_BATCH_SIZE", "25")
	os.Setenv("QUESTKIT_WEBHOOK_ENDPOINTS", "https://a.example/hook, https://b.example/hook")
	defer func() {
		os.Unsetenv("QUESTKIT_SCHEDULER_SWEEP_INTERVAL")
		os.Unsetenv("QUESTKIT_SCHEDULER_BATCH_SIZE")
		os.Unsetenv("QUESTKIT_WEBHOOK_ENDPOINTS")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Scheduler.SweepInterval)
	assert.Equal(t, 25, cfg.Scheduler.BatchSize)
	assert.Equal(t, []string{"https://a.example/hook", "https://b.example/hook"}, cfg.Webhook.Endpoints)
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"environment": "testing",
		"storage": {
			"adapter": "memory"
		},
		"levels": {
			"thresholds": [
				{"level": 1, "min_points": 0},
				{"level": 2, "min_points": 50}
			]
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	require.Len(t, cfg.Levels.Thresholds, 2)
	assert.Equal(t, int64(50), cfg.Levels.Thresholds[1].MinPoints)
}

func TestLevelsTableDefaults(t *testing.T) {
	var l LevelsConfig
	assert.Equal(t, core.DefaultLevelTable(), l.Table())

	l.Thresholds = core.LevelTable{{Level: 1, MinPoints: 0}, {Level: 2, MinPoints: 10}}
	assert.Equal(t, l.Thresholds, l.Table())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: EnvDevelopment,
			Storage:     StorageConfig{Adapter: "memory"},
			Logging:     LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid config",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "invalid environment",
			mutate:      func(c *Config) { c.Environment = "" },
			expectError: true,
		},
		{
			name:        "unknown storage adapter",
			mutate:      func(c *Config) { c.Storage.Adapter = "carrier-pigeon" },
			expectError: true,
		},
		{
			name:        "sql adapter without dsn",
			mutate:      func(c *Config) { c.Storage.Adapter = "sql" },
			expectError: true,
		},
		{
			name: "descending level thresholds",
			mutate: func(c *Config) {
				c.Levels.Thresholds = core.LevelTable{{Level: 1, MinPoints: 100}, {Level: 2, MinPoints: 50}}
			},
			expectError: true,
		},
		{
			name: "scheduler enabled without interval",
			mutate: func(c *Config) {
				c.Scheduler = SchedulerConfig{Enabled: true, SweepInterval: 0, BatchSize: 10}
			},
			expectError: true,
		},
		{
			name: "bad webhook endpoint",
			mutate: func(c *Config) {
				c.Webhook = WebhookConfig{Endpoints: []string{"not a url"}, Timeout: time.Second}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectError bool
		setup       func() string // returns path to cleanup
	}{
		{
			name:        "valid json file",
			path:        "config_test.json",
			expectError: false,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.json")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "empty path",
			path:        "",
			expectError: true,
			setup:       func() string { return "" },
		},
		{
			name:        "non-json file",
			path:        "config.txt",
			expectError: true,
			setup: func() string {
				tmpFile, _ := os.CreateTemp("", "config_test_*.txt")
				tmpFile.WriteString("{}")
				tmpFile.Close()
				return tmpFile.Name()
			},
		},
		{
			name:        "nonexistent file",
			path:        "nonexistent.json",
			expectError: true,
			setup:       func() string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanupPath := tt.setup()
			if cleanupPath != "" {
				defer os.Remove(cleanupPath)
				if tt.path == "config_test.json" || tt.path == "config.txt" {
					tt.path = cleanupPath
				}
			}

			err := validateConfigPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
