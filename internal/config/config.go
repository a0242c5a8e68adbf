package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jacentio/rookery/store"
)

// Supported storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds all configuration for rookery.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Tables   TablesConfig   `mapstructure:"tables"`
	Service  ServiceConfig  `mapstructure:"service"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DynamoDBConfig holds DynamoDB client settings.
type DynamoDBConfig struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"` // e.g. DynamoDB Local
	Profile      string `mapstructure:"profile"`
	ScanSegments int    `mapstructure:"scan_segments"`
}

// TablesConfig names the table of each hierarchy level.
type TablesConfig struct {
	Entities     string `mapstructure:"entities"`
	Environments string `mapstructure:"environments"`
	Devices      string `mapstructure:"devices"`
}

// ServiceConfig holds inventory service settings.
type ServiceConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty
// path searches ~/.rookery and the working directory for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := store.DefaultConfig()
	v.SetDefault("backend", BackendDynamoDB)
	v.SetDefault("dynamodb.region", "")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.profile", "")
	v.SetDefault("dynamodb.scan_segments", defaults.ScanSegments)
	v.SetDefault("tables.entities", defaults.EntitiesTable)
	v.SetDefault("tables.environments", defaults.EnvironmentsTable)
	v.SetDefault("tables.devices", defaults.DevicesTable)
	v.SetDefault("service.endpoint", "http://localhost:8080/v1")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir(), ".rookery"))
		v.AddConfigPath(".")
	}

	// Environment variables, e.g. ROOKERY_DYNAMODB_REGION
	v.SetEnvPrefix("ROOKERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDynamoDB, BackendMemory:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendDynamoDB, BackendMemory, c.Backend)
	}
	if c.DynamoDB.ScanSegments < 1 {
		return fmt.Errorf("dynamodb.scan_segments must be greater than 0")
	}
	if c.Tables.Entities == "" || c.Tables.Environments == "" || c.Tables.Devices == "" {
		return fmt.Errorf("tables.entities, tables.environments and tables.devices must not be empty")
	}
	if c.Tables.Entities == c.Tables.Environments || c.Tables.Entities == c.Tables.Devices ||
		c.Tables.Environments == c.Tables.Devices {
		return fmt.Errorf("table names must be distinct")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// StoreConfig returns the connector configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		EntitiesTable:     c.Tables.Entities,
		EnvironmentsTable: c.Tables.Environments,
		DevicesTable:      c.Tables.Devices,
		ScanSegments:      c.DynamoDB.ScanSegments,
	}
}

// NewLogger builds the structured logger described by c.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
