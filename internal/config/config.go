// Package config loads the server's runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvLogLevel     = "SLITDRUM_LOG_LEVEL"
	EnvDBPath       = "SLITDRUM_DB_PATH"
	EnvMaxDimension = "SLITDRUM_MAX_IMAGE_DIMENSION"
	EnvBackend      = "SLITDRUM_BACKEND"
)

// Detection backends.
const (
	BackendBuiltin = "builtin"
	BackendOpenCV  = "opencv"
)

// Defaults.
const (
	DefaultMaxImageDimension = 2400
	defaultDBFile            = "layouts.db"
	defaultDBDir             = ".slitdrum"
)

// Config holds the runtime settings.
type Config struct {
	LogLevel logrus.Level

	// DBPath is the SQLite file layouts are saved in.
	DBPath string

	// MaxImageDimension caps the longer side of a photo before detection;
	// 0 disables downscaling.
	MaxImageDimension int

	// Backend selects the detector: BackendBuiltin or BackendOpenCV.
	Backend string

	// Warnings collects values that were ignored in favor of a default.
	Warnings []string
}

// Default returns the settings used when no variables are set.
func Default() Config {
	return Config{
		LogLevel:          logrus.InfoLevel,
		DBPath:            defaultDBPath(),
		MaxImageDimension: DefaultMaxImageDimension,
		Backend:           BackendBuiltin,
	}
}

// Load reads the environment. Invalid values never fail the load: they
// fall back to the default and are reported in Warnings for the caller to
// log once a logger exists.
func Load() Config {
	return load(os.Getenv)
}

func load(getenv func(string) string) Config {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			cfg.warn("%s=%q is not a log level, using %s", EnvLogLevel, v, cfg.LogLevel)
		} else {
			cfg.LogLevel = lvl
		}
	}

	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		cfg.DBPath = expandHome(v)
	}

	if v := strings.TrimSpace(getenv(EnvMaxDimension)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			cfg.warn("%s=%q is not a non-negative integer, using %d", EnvMaxDimension, v, cfg.MaxImageDimension)
		} else {
			cfg.MaxImageDimension = n
		}
	}

	if v := strings.ToLower(strings.TrimSpace(getenv(EnvBackend))); v != "" {
		switch v {
		case BackendBuiltin, BackendOpenCV:
			cfg.Backend = v
		default:
			cfg.warn("%s=%q is not a known backend, using %s", EnvBackend, v, cfg.Backend)
		}
	}

	return cfg
}

// EnsureDBDir creates the directory holding DBPath.
func (c Config) EnsureDBDir() error {
	dir := filepath.Dir(c.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(defaultDBDir, defaultDBFile)
	}
	return filepath.Join(home, defaultDBDir, defaultDBFile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
