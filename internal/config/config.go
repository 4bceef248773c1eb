// Package config provides configuration loading and structs for the ai-svc server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Search  SearchConfig  `yaml:"search"`
	Seed    SeedConfig    `yaml:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the product index storage path. The on-disk layout under
// IndexPath belongs to the vector-store library and is not part of the API.
type StorageConfig struct {
	IndexPath string `yaml:"index_path"`
}

// AIConfig holds remote model settings. APIKey is normally supplied via the
// GOOGLE_API_KEY environment variable; an empty key does not prevent startup,
// it degrades the AI endpoints to structured failure responses.
type AIConfig struct {
	APIKey                 string   `yaml:"api_key"`
	GenerationModels       []string `yaml:"generation_models"`
	EmbeddingModel         string   `yaml:"embedding_model"`
	FallbackEmbeddingModel string   `yaml:"fallback_embedding_model"`
	MaxAttempts            int      `yaml:"max_attempts"`
	BackoffBaseSeconds     int      `yaml:"backoff_base_seconds"`
	BackoffCapSeconds      int      `yaml:"backoff_cap_seconds"`
	RequestTimeoutSeconds  int      `yaml:"request_timeout_seconds"`
}

// SearchConfig holds retrieval settings for the product index.
type SearchConfig struct {
	DefaultLimit       int `yaml:"default_limit"`
	MaxLimit           int `yaml:"max_limit"`
	MaxContextProducts int `yaml:"max_context_products"`
}

// SeedConfig holds the optional catalog seed directory watched for
// per-tenant catalog JSON files.
type SeedConfig struct {
	Directory string `yaml:"directory"`
}

// Load reads and parses the config file at path, applies defaults, expands
// storage paths, and overlays the GOOGLE_API_KEY environment variable.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Seed.Directory != "" {
		cfg.Seed.Directory = expandPath(cfg.Seed.Directory, configDir)
	}

	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists:
// all defaults, with the GOOGLE_API_KEY environment variable overlaid.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
