// Package config provides configuration management for the explorer.
//
// Config file locations (priority order):
//  1. $EXPLORER_CONFIG
//  2. ./explorer.yaml
//  3. $XDG_CONFIG_HOME/explorer/config.yaml
//  4. ~/.config/explorer/config.yaml
//  5. /etc/explorer/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"repoexplorer/internal/logging"
)

// Defaults for a new installation
const (
	DefaultAddr         = ":8080"
	DefaultDatabasePath = "./explorer.db"
	DefaultPageSize     = 20
	DefaultMaxPageSize  = 500
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.resolvePaths(path)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Explorer.DefaultPageSize <= 0 {
		c.Explorer.DefaultPageSize = DefaultPageSize
	}
	if c.Explorer.MaxPageSize <= 0 {
		c.Explorer.MaxPageSize = DefaultMaxPageSize
	}
}

// Validate rejects settings that cannot be served
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q: want json or console", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	if c.Explorer.DefaultPageSize > c.Explorer.MaxPageSize {
		return fmt.Errorf("explorer.default_page_size %d exceeds max_page_size %d",
			c.Explorer.DefaultPageSize, c.Explorer.MaxPageSize)
	}
	return nil
}

// LoggerConfig returns the logger settings for this config
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		OutputPath: c.Logging.Output,
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Logging: %s/%s -> %s\n", c.Logging.Level, c.Logging.Format, c.Logging.Output)
	summary += fmt.Sprintf("Paging: default %d, max %d; type definitions: %d (watch: %v)",
		c.Explorer.DefaultPageSize, c.Explorer.MaxPageSize,
		len(c.Explorer.TypeDefinitions), c.Explorer.WatchTypeDefinitions)
	return summary
}
