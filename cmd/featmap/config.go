package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/featmap/csr"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file. Command line flags override it.
type Config struct {
	Store       StoreConfig  `yaml:"store"`
	Remap       RemapConfig  `yaml:"remap"`
	Log         LogConfig    `yaml:"log"`
	Limits      LimitsConfig `yaml:"limits"`
	MetricsFile string       `yaml:"metrics_file"`
}

// StoreConfig selects the blob store.
type StoreConfig struct {
	// URI is file:///dir, a plain path, mem://, s3://bucket/prefix or
	// minio://host:port/bucket/prefix.
	URI string `yaml:"uri"`

	// DDBTable keeps the CURRENT pointer of an s3:// store in DynamoDB.
	DDBTable string `yaml:"ddb_table"`

	// Express enables conditional writes for s3:// stores.
	Express bool `yaml:"express"`

	// CacheDir keeps local copies of remote blobs.
	CacheDir string `yaml:"cache_dir"`

	// MinIOSecure uses HTTPS for minio:// stores.
	MinIOSecure bool `yaml:"minio_secure"`
}

// RemapConfig holds defaults for the remap command.
type RemapConfig struct {
	MinSupport  int    `yaml:"min_support"`
	Workers     int    `yaml:"workers"`
	Compression string `yaml:"compression"`
	Publish     bool   `yaml:"publish"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LimitsConfig bounds dataset transfers.
type LimitsConfig struct {
	MemoryBytes    int64 `yaml:"memory_bytes"`
	IOBytesPerSec  int64 `yaml:"io_bytes_per_sec"`
	MaxConcurrency int64 `yaml:"max_concurrency"`
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{URI: "."},
		Remap: RemapConfig{Compression: "lz4"},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := c.logLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := csr.ParseCompression(c.Remap.Compression); err != nil {
		return err
	}
	if c.Remap.MinSupport < 0 {
		return fmt.Errorf("min_support must not be negative, got %d", c.Remap.MinSupport)
	}
	return nil
}

func (c Config) logLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return l, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
