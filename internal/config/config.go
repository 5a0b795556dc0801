package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env" validate:"required"` // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`                       // Telegram API token loaded from environment
	Decks            Decks   `mapstructure:"decks"`                   // deck files
	Storage          Storage `mapstructure:"storage"`                 // storage backend selection
	DB               DB      `mapstructure:"database"`                // postgres configuration section
	SQLite           SQLite  `mapstructure:"sqlite"`                  // sqlite configuration section
	Study            Study   `mapstructure:"study"`                   // study session tuning
}

type Decks struct {
	Path string `mapstructure:"path" validate:"required"` // directory with *.json deck files
}

type Storage struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                                  // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections" validate:"gte=1"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" validate:"gte=0"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

type SQLite struct {
	Path string `mapstructure:"path"` // database file, ":memory:" for a throwaway store
}

// Study contains study session parameters.
type Study struct {
	SessionSize   int           `mapstructure:"session_size" validate:"gte=1,lte=100"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	SweepSchedule string        `mapstructure:"sweep_schedule" validate:"required"`
	SubmitRetries int           `mapstructure:"submit_retries" validate:"gte=0,lte=10"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" validate:"gte=0"`
}

// Load reads configuration from config files and environment variables.
// An empty path searches ./config for config.yaml.
func Load(path string) (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("decks.path", "assets/decks")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("sqlite.path", "flashquiz.db")
	v.SetDefault("study.session_size", 10)
	v.SetDefault("study.idle_timeout", "30m")
	v.SetDefault("study.sweep_schedule", "@every 1m")
	v.SetDefault("study.submit_retries", 2)
	v.SetDefault("study.retry_backoff", "500ms")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// RequireBot checks the values needed to run the bot.
func (c *Config) RequireBot() error {
	if c.TelegramAPIToken == "" {
		return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}
	return c.RequireStorage()
}

// RequireStorage checks the values needed by the configured storage driver.
func (c *Config) RequireStorage() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is empty")
		}
	}
	return nil
}
