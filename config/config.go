// Package config holds the YAML configuration of the vecload command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/vecload/resource"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the vecload configuration
type Config struct {
	Database Database `yaml:"database"`
	Storage  Storage  `yaml:"storage"`
	Load     Load     `yaml:"load"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Database contains connection settings
type Database struct {
	// DSN is a libpq connection string or URL. Empty means
	// postgres://$USER@localhost.
	DSN string `yaml:"dsn"`
	// MaxConnections bounds concurrent table loads.
	MaxConnections int64 `yaml:"max_connections"`
}

// Storage selects where datasets live
type Storage struct {
	Backend     string `yaml:"backend"`
	Compression string `yaml:"compression"`
	S3          S3     `yaml:"s3"`
	MinIO       MinIO  `yaml:"minio"`
}

// S3 contains settings for the s3 backend
type S3 struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
	// CommitTable, if set, names a DynamoDB table holding dataset manifests.
	CommitTable string `yaml:"commit_table"`
}

// MinIO contains settings for the minio backend
type MinIO struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// Load contains export and load tuning
type Load struct {
	BlockSize          int   `yaml:"block_size"`
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
	ProgressInterval   int64 `yaml:"progress_interval"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics contains the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: Database{
			MaxConnections: 2,
		},
		Storage: Storage{
			Backend:     BackendLocal,
			Compression: "none",
		},
		Load: Load{
			ProgressInterval: 100_000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks enumerations and limits.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("%w: storage.s3.bucket is required", ErrInvalidConfig)
		}
	case BackendMinIO:
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("%w: storage.minio.endpoint and storage.minio.bucket are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Database.MaxConnections < 0 || c.Load.BlockSize < 0 ||
		c.Load.MemoryLimitBytes < 0 || c.Load.IOLimitBytesPerSec < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SlogLevel parses Level.
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, l.Level)
	}
	return level, nil
}

// Resources returns the resource limits described by the configuration.
func (c *Config) Resources() resource.Config {
	return resource.Config{
		MemoryLimitBytes:   c.Load.MemoryLimitBytes,
		MaxConnections:     c.Database.MaxConnections,
		IOLimitBytesPerSec: c.Load.IOLimitBytesPerSec,
	}
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path. The file may
// hold credentials and is written with mode 0600.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns ~/.config/vecload/config.yaml, or
// ./vecload.yaml without a home directory.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./vecload.yaml"
	}
	return filepath.Join(homeDir, ".config", "vecload", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
