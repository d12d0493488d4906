// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for hwbeat.
type Config struct {
	// StateDir is the base directory for agent state (spool, history).
	StateDir string `yaml:"state_dir"`

	// SocketPath is the unix socket the agent serves queries on and
	// the CLI connects to.
	SocketPath string `yaml:"socket_path"`

	// PollIntervalMS is the hardware refresh interval in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// QuirksFile is an optional JSONC sensor quirk definition applied
	// after probing. Empty means no quirks.
	QuirksFile string `yaml:"quirks_file"`

	// HealthFile is an optional liveness file rewritten after every
	// successful refresh. Empty disables it.
	HealthFile string `yaml:"health_file"`

	// Hardware selects which hardware classes publish metrics.
	Hardware HardwareConfig `yaml:"hardware"`

	// Telemetry configures batch export to a collector endpoint.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures the local metric history store.
	History HistoryConfig `yaml:"history"`

	// Log configures agent logging.
	Log LogConfig `yaml:"log"`
}

// HardwareConfig is the per-class enable switch set. All classes
// default to enabled; the provider still probes everything, these only
// gate which instruments register.
type HardwareConfig struct {
	Battery     bool `yaml:"battery"`
	Controller  bool `yaml:"controller"`
	CPU         bool `yaml:"cpu"`
	GPU         bool `yaml:"gpu"`
	Memory      bool `yaml:"memory"`
	Motherboard bool `yaml:"motherboard"`
	Network     bool `yaml:"network"`
	Storage     bool `yaml:"storage"`
}

// TelemetryConfig configures the export pipeline. An empty SinkSocket
// disables export entirely; socket queries still serve live values.
type TelemetryConfig struct {
	// SinkSocket is the unix socket of the collector endpoint batches
	// are shipped to. Empty disables export.
	SinkSocket string `yaml:"sink_socket"`

	// ExportIntervalMS is how often collected points are flushed into
	// a batch, in milliseconds.
	ExportIntervalMS int `yaml:"export_interval_ms"`

	// BufferBatches is the in-memory batch queue capacity. The oldest
	// batch is dropped (to the spool when configured) on overflow.
	BufferBatches int `yaml:"buffer_batches"`

	// SpoolDir is where undeliverable batches are kept across sink
	// outages. Empty disables spooling.
	SpoolDir string `yaml:"spool_dir"`

	// SpoolMaxBytes caps the spool directory size.
	SpoolMaxBytes int64 `yaml:"spool_max_bytes"`
}

// HistoryConfig configures the local SQLite metric history. An empty
// Path disables history.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`

	// RetentionDays is how many day partitions to keep.
	RetentionDays int `yaml:"retention_days"`
}

// LogConfig configures agent logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the default configuration. These defaults are a
// base for the config file to merge over, and are complete enough to
// run an agent with no file at all.
func Default() *Config {
	return &Config{
		StateDir:       "/var/lib/hwbeat",
		SocketPath:     "/run/hwbeat/hwbeatd.sock",
		PollIntervalMS: 1000,
		Hardware: HardwareConfig{
			Battery:     true,
			Controller:  true,
			CPU:         true,
			GPU:         true,
			Memory:      true,
			Motherboard: true,
			Network:     true,
			Storage:     true,
		},
		Telemetry: TelemetryConfig{
			ExportIntervalMS: 10000,
			BufferBatches:    64,
			SpoolMaxBytes:    64 << 20,
		},
		History: HistoryConfig{
			RetentionDays: 7,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the HWBEAT_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if HWBEAT_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("HWBEAT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("HWBEAT_CONFIG environment variable not set; " +
			"set it to the path of your hwbeat.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HWBEAT_STATE": c.StateDir,
		"HOME":         os.Getenv("HOME"),
	}

	c.StateDir = expandVars(c.StateDir, vars)
	vars["HWBEAT_STATE"] = c.StateDir // Update for dependent paths.

	c.SocketPath = expandVars(c.SocketPath, vars)
	c.QuirksFile = expandVars(c.QuirksFile, vars)
	c.HealthFile = expandVars(c.HealthFile, vars)
	c.Telemetry.SinkSocket = expandVars(c.Telemetry.SinkSocket, vars)
	c.Telemetry.SpoolDir = expandVars(c.Telemetry.SpoolDir, vars)
	c.History.Path = expandVars(c.History.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of them
// at once.
func (c *Config) Validate() error {
	var errs []error

	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("state_dir is required"))
	}
	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}
	if c.PollIntervalMS < 1 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be at least 1, got %d", c.PollIntervalMS))
	}

	if c.Telemetry.SinkSocket != "" {
		if c.Telemetry.ExportIntervalMS < 1 {
			errs = append(errs, fmt.Errorf("telemetry.export_interval_ms must be at least 1, got %d", c.Telemetry.ExportIntervalMS))
		}
		if c.Telemetry.BufferBatches < 1 {
			errs = append(errs, fmt.Errorf("telemetry.buffer_batches must be at least 1, got %d", c.Telemetry.BufferBatches))
		}
	} else if c.Telemetry.SpoolDir != "" {
		errs = append(errs, fmt.Errorf("telemetry.spool_dir requires telemetry.sink_socket"))
	}
	if c.Telemetry.SpoolMaxBytes < 0 {
		errs = append(errs, fmt.Errorf("telemetry.spool_max_bytes must not be negative, got %d", c.Telemetry.SpoolMaxBytes))
	}

	if c.History.Path != "" && c.History.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("history.retention_days must be at least 1, got %d", c.History.RetentionDays))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PollInterval returns the hardware refresh interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ExportInterval returns the telemetry flush interval as a duration.
func (c *Config) ExportInterval() time.Duration {
	return time.Duration(c.Telemetry.ExportIntervalMS) * time.Millisecond
}

// Retention returns the history retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", l.Level)
	}
}

// EnsureDirs creates the directories the agent writes into: the state
// dir, the spool dir, and the parents of the socket, history, and
// health files.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.StateDir,
		c.Telemetry.SpoolDir,
	}
	for _, file := range []string{c.SocketPath, c.History.Path, c.HealthFile} {
		if file != "" {
			dirs = append(dirs, filepath.Dir(file))
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
