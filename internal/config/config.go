// Package config provides configuration management for transitmap.
//
// The config file says where reference data comes from and where layout
// versions are kept. Reference data is read once at start-up; versions live
// in the database and survive restarts unless the server runs ephemeral.
//
// Config file locations (priority order):
//  1. $TRANSITMAP_CONFIG
//  2. ./transitmap.yaml
//  3. $XDG_CONFIG_HOME/transitmap/config.yaml
//  4. ~/.config/transitmap/config.yaml
//  5. /etc/transitmap/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

const (
	defaultAddr            = ":3000"
	defaultDatabasePath    = "./transitmap.db"
	defaultVersionsKey     = "cytoscapeUnifiedLayoutVersions"
	defaultFetchTimeout    = 10 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultInboxDebounce   = 500 * time.Millisecond
	defaultLogLevel        = "info"
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

	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

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
	cfg := &Config{
		Data: DataConfig{
			Sources: []SourceConfig{
				{Type: "metro", Path: "./data/consolidated_system_data.json"},
			},
			Coordinates: "./data/figma_coordinates.json",
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Storage.VersionsKey == "" {
		c.Storage.VersionsKey = defaultVersionsKey
	}
	if c.Data.FetchTimeout == 0 {
		c.Data.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if c.Inbox.Debounce == 0 {
		c.Inbox.Debounce = Duration(defaultInboxDebounce)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	for i := range c.Data.Sources {
		c.Data.Sources[i].Type = strings.ToLower(strings.TrimSpace(c.Data.Sources[i].Type))
	}
}

// resolvePaths makes data, database and inbox locations relative to the
// config file rather than the working directory
func (c *Config) resolvePaths(baseDir string) {
	for i := range c.Data.Sources {
		c.Data.Sources[i].Path = resolveRelative(baseDir, c.Data.Sources[i].Path)
	}
	c.Data.Coordinates = resolveRelative(baseDir, c.Data.Coordinates)
	c.Data.Colors = resolveRelative(baseDir, c.Data.Colors)
	c.Inbox.Dir = resolveRelative(baseDir, c.Inbox.Dir)
	if c.Database.Path != ":memory:" {
		c.Database.Path = resolveRelative(baseDir, c.Database.Path)
	}
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	store := c.Database.Path
	if c.Database.Ephemeral {
		store = "memory"
	}
	summary := fmt.Sprintf("Listen: %s, Store: %s, Versions key: %s\n", c.Server.Addr, store, c.Storage.VersionsKey)
	summary += fmt.Sprintf("Datasets (%d):", len(c.Data.Sources))
	for _, src := range c.Data.Sources {
		summary += fmt.Sprintf(" %s=%s", src.Type, src.Path)
	}
	if c.Inbox.Dir != "" {
		summary += fmt.Sprintf("\nInbox: %s", c.Inbox.Dir)
	}
	return summary
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "required", "required_unless":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s entries", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
