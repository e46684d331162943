package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Data     DataConfig     `yaml:"data"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	ReadTimeout     Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    Duration `yaml:"write_timeout,omitempty"` // not applied to SSE streams
	ShutdownTimeout Duration `yaml:"shutdown_timeout,omitempty"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path      string `yaml:"path" validate:"required_unless=Ephemeral true"`
	Ephemeral bool   `yaml:"ephemeral,omitempty"` // keep versions in memory only
}

// StorageConfig controls how layout versions are persisted
type StorageConfig struct {
	VersionsKey string `yaml:"versions_key"`
}

// DataConfig lists the reference data the network is built from.
// Locations are file paths or http(s) URLs.
type DataConfig struct {
	Sources      []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`
	Coordinates  string         `yaml:"coordinates,omitempty"`
	Colors       string         `yaml:"colors,omitempty"`
	FetchTimeout Duration       `yaml:"fetch_timeout,omitempty"`
}

// SourceConfig is one station/line dataset
type SourceConfig struct {
	Type string `yaml:"type" validate:"required,oneof=metro tram funicular metrobus"`
	Path string `yaml:"path" validate:"required"`
}

// InboxConfig enables the drop directory for layout imports
type InboxConfig struct {
	Dir      string   `yaml:"dir,omitempty"` // empty disables the watcher
	Debounce Duration `yaml:"debounce,omitempty"`
}

// LogConfig selects the logger
type LogConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
