package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ranksum/domain/hypothesis"
	"ranksum/internal"
	"ranksum/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Test   TestConfig
	Batch  BatchConfig
	Server ServerConfig
	Log    LogConfig
}

// TestConfig holds the defaults applied when a request leaves them unset
type TestConfig struct {
	Alpha  float64
	AltHyp hypothesis.AltHyp
}

// BatchConfig holds batch runner settings
type BatchConfig struct {
	MaxConcurrency int
	Timeout        time.Duration // zero means no deadline
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	testConfig, err := loadTestConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load test configuration")
	}
	config.Test = *testConfig

	config.Batch = *loadBatchConfig()
	config.Server = *loadServerConfig()

	logConfig, err := loadLogConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load log configuration")
	}
	config.Log = *logConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration Load produces with an empty environment
func Default() *Config {
	return &Config{
		Test:   TestConfig{Alpha: 0.05, AltHyp: hypothesis.Ne},
		Batch:  BatchConfig{MaxConcurrency: 4},
		Server: ServerConfig{Port: "8080", ReadTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second},
		Log:    LogConfig{Level: internal.LogLevelInfo},
	}
}

func loadTestConfig() (*TestConfig, error) {
	altHyp, err := hypothesis.ParseAltHyp(getEnvOrDefault("RANKSUM_ALT_HYP", "ne"))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	return &TestConfig{
		Alpha:  getEnvFloatOrDefault("RANKSUM_ALPHA", 0.05),
		AltHyp: altHyp,
	}, nil
}

func loadBatchConfig() *BatchConfig {
	return &BatchConfig{
		MaxConcurrency: getEnvIntOrDefault("RANKSUM_MAX_CONCURRENCY", 4),
		Timeout:        getEnvDurationOrDefault("RANKSUM_BATCH_TIMEOUT", 0),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		ReadTimeout:  getEnvDurationOrDefault("RANKSUM_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDurationOrDefault("RANKSUM_WRITE_TIMEOUT", 30*time.Second),
	}
}

func loadLogConfig() (*LogConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown LOG_LEVEL %q", raw))
	}
	return &LogConfig{Level: level}, nil
}

func validateConfig(config *Config) error {
	if err := hypothesis.CheckAlpha(config.Test.Alpha); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if config.Batch.MaxConcurrency < 1 {
		return errors.ConfigInvalid("RANKSUM_MAX_CONCURRENCY must be at least 1")
	}
	if config.Batch.Timeout < 0 {
		return errors.ConfigInvalid("RANKSUM_BATCH_TIMEOUT must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
