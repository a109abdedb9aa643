// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.careerguide/config.yaml or ./config.yaml)
//  3. Default values
//
// Categories:
//   - AI: provider model, temperature, max output tokens, history window
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: listen address, CORS origins, rate limiting
//
// Sensitive values (API key, database password) are read from the
// environment and never written back to disk or logged.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
// Check with errors.Is and wrap with fmt.Errorf("%w: details", ErrXxx).
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidHistoryWindow indicates the history window is out of range.
	ErrInvalidHistoryWindow = errors.New("invalid history window")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultModelName is the Gemini model used when none is configured.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultHistoryWindow is the number of prior messages sent as model
	// context: 5 exchanges, user and assistant turn each.
	DefaultHistoryWindow = 10

	// MaxHistoryWindow bounds the context window to keep prompt size sane.
	MaxHistoryWindow = 100
)

// Config stores application configuration.
type Config struct {
	// AI provider configuration
	ModelName     string  `mapstructure:"model_name"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	HistoryWindow int     `mapstructure:"history_window"`

	// APIKey is read from GEMINI_API_KEY. Never stored in the config file.
	APIKey string `mapstructure:"-"`

	// PostgreSQL configuration (see storage.go for DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Server configuration
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	// MemoryStore switches the session store to the in-memory implementation.
	// Intended for development and demos; nothing survives a restart.
	MemoryStore bool `mapstructure:"memory_store"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".careerguide")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.APIKey = os.Getenv("GEMINI_API_KEY")

	// DATABASE_URL overrides individual postgres_* settings when set.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", 0.8)
	viper.SetDefault("max_tokens", 1024)
	viper.SetDefault("history_window", DefaultHistoryWindow)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "careerguide")
	viper.SetDefault("postgres_password", "careerguide_dev_password")
	viper.SetDefault("postgres_db_name", "careerguide")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("listen_addr", "127.0.0.1:3400")
	viper.SetDefault("cors_origins", []string{})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 60)
	viper.SetDefault("memory_store", false)

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", true)
}

// bindEnvVariables binds environment variables to configuration keys.
// All keys are prefixed with CAREERGUIDE_ (e.g. CAREERGUIDE_MODEL_NAME).
func bindEnvVariables() {
	viper.SetEnvPrefix("CAREERGUIDE")
	viper.AutomaticEnv()

	keys := []string{
		"model_name", "temperature", "max_tokens", "history_window",
		"postgres_host", "postgres_port", "postgres_user",
		"postgres_password", "postgres_db_name", "postgres_ssl_mode",
		"listen_addr", "trust_proxy", "rate_burst", "memory_store",
		"log_level", "log_json",
	}
	for _, key := range keys {
		// BindEnv only errors on an empty key
		_ = viper.BindEnv(key)
	}
}
