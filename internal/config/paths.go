package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "TRANSITMAP_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "transitmap.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "transitmap"
)

// FindConfigPath returns the first existing config file, or "" when none is
// found. Candidates are checked in this order:
//  1. $TRANSITMAP_CONFIG (explicit path)
//  2. ./transitmap.yaml (working directory)
//  3. $XDG_CONFIG_HOME/transitmap/config.yaml
//  4. ~/.config/transitmap/config.yaml
//  5. /etc/transitmap/config.yaml
func FindConfigPath() string {
	for _, path := range candidatePaths() {
		if !fileExists(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

func candidatePaths() []string {
	var paths []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, ConfigFileName)
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// DefaultConfigPath returns the preferred location for a new config file
// Prefers XDG config home, falls back to working directory
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

// IsRemote reports whether a data location is an http(s) URL
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// resolveRelative anchors relative file locations at the config file's
// directory. URLs and absolute paths are returned unchanged.
func resolveRelative(baseDir, location string) string {
	if location == "" || IsRemote(location) || filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(baseDir, location)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
