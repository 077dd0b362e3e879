// Package config loads KnowledgeScout configuration.
//
// Configuration hierarchy (later wins):
//  1. Hardcoded defaults (Default())
//  2. YAML config file (--config flag or ./knowledgescout.yaml)
//  3. Environment variables (KSCOUT_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete KnowledgeScout configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig configures on-disk storage locations.
type StorageConfig struct {
	// DataDir holds the SQLite database and the instance lock file.
	DataDir string `yaml:"data_dir"`
	// UploadsDir holds uploaded document files.
	UploadsDir string `yaml:"uploads_dir"`
}

// DatabasePath returns the path of the SQLite database file.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataDir, "knowledgescout.db")
}

// AuthConfig configures token issuing.
type AuthConfig struct {
	// JWTSecret signs bearer tokens. Required for serving.
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTL is the bearer token lifetime (default: 168h).
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// CacheConfig configures the two-tier result cache.
type CacheConfig struct {
	// TTL is the freshness window for cached answers (default: 60s).
	TTL time.Duration `yaml:"ttl"`
	// LocalSize bounds the process-local tier entry count (default: 1024).
	LocalSize int `yaml:"local_size"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	// DefaultLimit is the result count used when a request omits k (default: 5).
	DefaultLimit int `yaml:"default_limit"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	// MaxUploadMB caps uploaded file size (default: 10).
	MaxUploadMB int `yaml:"max_upload_mb"`
	// WatchDir, when set, is watched for dropped text files to ingest.
	WatchDir string `yaml:"watch_dir"`
	// WatchOwner is the user id that owns watch-ingested documents.
	WatchOwner string `yaml:"watch_owner"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (i IngestConfig) MaxUploadBytes() int64 {
	return int64(i.MaxUploadMB) * 1024 * 1024
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
	Stderr   bool   `yaml:"stderr"`
}

// Default returns the hardcoded default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Storage: StorageConfig{
			DataDir:    ".knowledgescout",
			UploadsDir: "uploads",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			TTL:       60 * time.Second,
			LocalSize: 1024,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
		},
		Ingest: IngestConfig{
			MaxUploadMB: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Stderr: true,
		},
	}
}

// Load reads configuration from the given path (optional), applies
// environment overrides, and validates the result.
// An empty path falls back to ./knowledgescout.yaml when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("knowledgescout.yaml"); err == nil {
			path = "knowledgescout.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from KSCOUT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("KSCOUT_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("KSCOUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("KSCOUT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("KSCOUT_UPLOADS_DIR"); v != "" {
		c.Storage.UploadsDir = v
	}
	if v := os.Getenv("KSCOUT_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("KSCOUT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("KSCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KSCOUT_WATCH_DIR"); v != "" {
		c.Ingest.WatchDir = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be 1-65535", c.Server.Port)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("invalid cache.ttl %s: must be positive", c.Cache.TTL)
	}
	if c.Cache.LocalSize < 0 {
		return fmt.Errorf("invalid cache.local_size %d: must be non-negative", c.Cache.LocalSize)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("invalid search.default_limit %d: must be at least 1", c.Search.DefaultLimit)
	}
	if c.Ingest.MaxUploadMB < 1 {
		return fmt.Errorf("invalid ingest.max_upload_mb %d: must be at least 1", c.Ingest.MaxUploadMB)
	}
	if c.Ingest.WatchDir != "" && c.Ingest.WatchOwner == "" {
		return fmt.Errorf("ingest.watch_owner is required when ingest.watch_dir is set")
	}
	return nil
}
