// Package config provides configuration loading and structs for the Query Lab server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the Elasticsearch settings.
const (
	EnvElasticsearchURL    = "ELASTICSEARCH_URL"
	EnvElasticsearchAPIKey = "ELASTICSEARCH_APIKEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Storage       StorageConfig       `yaml:"storage"`
	Labs          LabsConfig          `yaml:"labs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// ElasticsearchConfig holds the cluster connection.
type ElasticsearchConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultIndex string        `yaml:"default_index"`
}

// HasAPIKey reports whether an API key is configured.
func (e *ElasticsearchConfig) HasAPIKey() bool { return e.APIKey != "" }

// StorageConfig holds the editor-state database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LabsConfig holds lab loading settings.
type LabsConfig struct {
	Directory string `yaml:"directory"`
	Watch     *bool  `yaml:"watch"`
	Active    string `yaml:"active"`
}

// WatchOrDefault returns whether to watch the labs directory; defaults to true when unset.
func (l *LabsConfig) WatchOrDefault() bool {
	if l.Watch != nil {
		return *l.Watch
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies
// defaults and environment overrides.
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
	ApplyEnv(&cfg, os.Getenv)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Server.StaticDir = expandPath(cfg.Server.StaticDir, configDir)
	cfg.Labs.Directory = expandPath(cfg.Labs.Directory, configDir)

	return &cfg, nil
}

// Default returns the configuration used when no config file exists, with
// relative paths resolved against the working directory.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, os.Getenv)
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, cwd)
	cfg.Server.StaticDir = expandPath(cfg.Server.StaticDir, cwd)
	cfg.Labs.Directory = expandPath(cfg.Labs.Directory, cwd)
	return &cfg
}

// ApplyEnv overrides the Elasticsearch URL and API key from the environment.
// getenv is os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvElasticsearchURL); v != "" {
		cfg.Elasticsearch.URL = v
	}
	if v := getenv(EnvElasticsearchAPIKey); v != "" {
		cfg.Elasticsearch.APIKey = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
