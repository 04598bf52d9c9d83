// Package config loads mechsave settings from YAML.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mechsave/internal/registry"
	"github.com/roach88/mechsave/internal/savedata"
)

// AppName names the per-user data directory.
const AppName = "tyrannomechs"

// SaveDirName is the directory under the data root holding all saves.
const SaveDirName = "Save"

// Storage backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// ValidBackends lists the accepted backend names.
var ValidBackends = []string{BackendFS, BackendSQLite}

// Config holds registry settings.
type Config struct {
	// Root is the application data root. Saves live in Root/Save.
	Root string `yaml:"root"`

	// Backend selects the storage implementation: "fs" or "sqlite".
	Backend string `yaml:"backend"`

	// FormatVersion is stamped on new lexicon entries.
	FormatVersion int `yaml:"format_version"`

	// MaxIDAttempts bounds the ID collision retry loop.
	MaxIDAttempts int `yaml:"max_id_attempts"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	root, err := DefaultRoot()
	if err != nil {
		root = "."
	}
	return Config{
		Root:          root,
		Backend:       BackendFS,
		FormatVersion: savedata.CurrentFormatVersion,
		MaxIDAttempts: registry.DefaultMaxIDAttempts,
		LogLevel:      "info",
	}
}

// DefaultRoot returns $XDG_DATA_HOME/tyrannomechs, defaulting to
// ~/.local/share/tyrannomechs.
func DefaultRoot() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName), nil
}

// Load reads a YAML config file on top of Default.
// Unknown fields are rejected so typos surface instead of being ignored.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if !isValidBackend(c.Backend) {
		return fmt.Errorf("invalid backend %q: must be one of %v", c.Backend, ValidBackends)
	}
	if c.FormatVersion < 1 {
		return fmt.Errorf("format_version must be at least 1, got %d", c.FormatVersion)
	}
	if c.MaxIDAttempts < 1 {
		return fmt.Errorf("max_id_attempts must be at least 1, got %d", c.MaxIDAttempts)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SaveDir returns the directory holding the lexicon and records.
func (c Config) SaveDir() string {
	return filepath.Join(c.Root, SaveDirName)
}

// ParseLevel maps a log_level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
}

func isValidBackend(b string) bool {
	for _, v := range ValidBackends {
		if v == b {
			return true
		}
	}
	return false
}
