package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopermute/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Permute PermuteConfig
	Log     LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// PermuteConfig bounds the work a single request may ask for
type PermuteConfig struct {
	DefaultReps   int
	MaxReps       int
	MaxConcurrent int
	Workers       int
	MaxSample     int
	// QueueTimeout bounds the wait for a free test slot
	QueueTimeout time.Duration
	// BaseSeed, when set, derives a replayable seed for requests that give none
	BaseSeed *int64
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	serverConfig, err := loadServerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load server configuration")
	}
	config.Server = *serverConfig

	permuteConfig, err := loadPermuteConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load permutation configuration")
	}
	config.Permute = *permuteConfig

	config.Log = LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Permute: PermuteConfig{
			DefaultReps:   10000,
			MaxReps:       1000000,
			MaxConcurrent: 4,
			Workers:       1,
			MaxSample:     100000,
			QueueTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "INFO"},
	}
}

func loadServerConfig() (*ServerConfig, error) {
	def := Default().Server
	timeout, err := getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", def.ShutdownTimeout)
	if err != nil {
		return nil, err
	}
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", def.Port),
		GinMode:         getEnvOrDefault("GIN_MODE", def.GinMode),
		ShutdownTimeout: timeout,
	}, nil
}

func loadPermuteConfig() (*PermuteConfig, error) {
	def := Default().Permute
	cfg := &PermuteConfig{}

	ints := []struct {
		key string
		dst *int
		def int
	}{
		{"PERMUTE_DEFAULT_REPS", &cfg.DefaultReps, def.DefaultReps},
		{"PERMUTE_MAX_REPS", &cfg.MaxReps, def.MaxReps},
		{"PERMUTE_MAX_CONCURRENT", &cfg.MaxConcurrent, def.MaxConcurrent},
		{"PERMUTE_WORKERS", &cfg.Workers, def.Workers},
		{"PERMUTE_MAX_SAMPLE", &cfg.MaxSample, def.MaxSample},
	}
	for _, v := range ints {
		n, err := getEnvIntOrDefault(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	queueTimeout, err := getEnvDurationOrDefault("PERMUTE_QUEUE_TIMEOUT", def.QueueTimeout)
	if err != nil {
		return nil, err
	}
	cfg.QueueTimeout = queueTimeout

	if value := strings.TrimSpace(os.Getenv("PERMUTE_SEED")); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("PERMUTE_SEED must be an integer, got %q", value))
		}
		cfg.BaseSeed = &seed
	}

	return cfg, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	p := config.Permute
	if p.DefaultReps <= 0 {
		return errors.ConfigInvalid("PERMUTE_DEFAULT_REPS must be positive")
	}
	if p.MaxReps < p.DefaultReps {
		return errors.ConfigInvalid("PERMUTE_MAX_REPS must be at least PERMUTE_DEFAULT_REPS")
	}
	if p.MaxConcurrent <= 0 {
		return errors.ConfigInvalid("PERMUTE_MAX_CONCURRENT must be positive")
	}
	if p.Workers <= 0 {
		return errors.ConfigInvalid("PERMUTE_WORKERS must be positive")
	}
	if p.MaxSample <= 0 {
		return errors.ConfigInvalid("PERMUTE_MAX_SAMPLE must be positive")
	}
	if p.QueueTimeout <= 0 {
		return errors.ConfigInvalid("PERMUTE_QUEUE_TIMEOUT must be positive")
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

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a duration, got %q", key, value))
	}
	return duration, nil
}
