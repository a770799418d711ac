// Package config provides configuration types and defaults for
// parcelgrid.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"parcelgrid/internal/log"
)

// StorageConfig selects where layout and saved-filter records persist.
type StorageConfig struct {
	// Driver selects the persistence backend.
	// Valid values: "sqlite" (default), "memory"
	Driver string `mapstructure:"driver"`

	// Path is the sqlite database file.
	// Default: ~/.parcelgrid/parcelgrid.db
	Path string `mapstructure:"path"`
}

// LayoutConfig tunes geometry persistence and clamping.
type LayoutConfig struct {
	// CheckpointIntervalMS throttles persistence during an active drag
	// or resize, in milliseconds. Default: 500.
	CheckpointIntervalMS int `mapstructure:"checkpoint_interval_ms"`

	// MinWidth and MinHeight are the default panel size floors, in
	// pixels. Panels may override them per descriptor.
	MinWidth  int `mapstructure:"min_width"`
	MinHeight int `mapstructure:"min_height"`
}

// CacheConfig tunes the entity fetch cache.
type CacheConfig struct {
	// Disabled bypasses the read-through cache entirely.
	Disabled bool `mapstructure:"disabled"`

	// TTLMinutes is how long fetched entities stay cached. Default: 10.
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// WatcherConfig controls the external layout-change watcher.
type WatcherConfig struct {
	// Enabled starts an fsnotify watcher on the storage file so
	// external writes publish a bus event. Default: false.
	Enabled bool `mapstructure:"enabled"`

	// DebounceMS coalesces bursts of file events. Default: 250.
	DebounceMS int `mapstructure:"debounce_ms"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Enabled turns file logging on. Default: false.
	Enabled bool `mapstructure:"enabled"`

	// Level is the minimum level written: "debug", "info", "warn",
	// "error". Default: "info".
	Level string `mapstructure:"level"`

	// Path is the log file. Default: ~/.parcelgrid/parcelgrid.log
	Path string `mapstructure:"path"`
}

// TracingConfig holds trace export configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "stdout", "otlp"
	// Default: "none"
	Exporter string `mapstructure:"exporter"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0). Default: 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for parcelgrid.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// CheckpointInterval returns the layout checkpoint interval as a
// duration; zero or negative values defer to the layout store default.
func (c Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Layout.CheckpointIntervalMS) * time.Millisecond
}

// CacheTTL returns the entity cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// Debounce returns the watcher debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// DefaultDataDir returns ~/.parcelgrid, or empty string if the home
// directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parcelgrid")
}

// DefaultStoragePath returns the default sqlite database path.
func DefaultStoragePath() string {
	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "parcelgrid.db")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "parcelgrid.log")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   DefaultStoragePath(),
		},
		Layout: LayoutConfig{
			CheckpointIntervalMS: 500,
			MinWidth:             200,
			MinHeight:            120,
		},
		Cache: CacheConfig{
			Disabled:   false,
			TTLMinutes: 10,
		},
		Watcher: WatcherConfig{
			Enabled:    false,
			DebounceMS: 250,
		},
		Log: LogConfig{
			Enabled: false,
			Level:   "info",
			Path:    DefaultLogPath(),
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for errors. Empty values use
// defaults and are valid.
func Validate(c Config) error {
	if err := ValidateStorage(c.Storage); err != nil {
		return err
	}
	if err := ValidateLayout(c.Layout); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateStorage checks storage configuration for errors.
func ValidateStorage(s StorageConfig) error {
	switch s.Driver {
	case "", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be \"sqlite\" or \"memory\", got %q", s.Driver)
	}
	if s.Driver == "sqlite" && s.Path == "" {
		return fmt.Errorf("storage.path is required when storage.driver is \"sqlite\"")
	}
	return nil
}

// ValidateLayout checks layout configuration for errors.
func ValidateLayout(l LayoutConfig) error {
	if l.CheckpointIntervalMS < 0 {
		return fmt.Errorf("layout.checkpoint_interval_ms must not be negative, got %d", l.CheckpointIntervalMS)
	}
	if l.MinWidth < 0 || l.MinHeight < 0 {
		return fmt.Errorf("layout.min_width and layout.min_height must not be negative")
	}
	return nil
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t TracingConfig) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	switch t.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string
// with comments.
func DefaultConfigTemplate() string {
	return `# Parcelgrid Configuration

# Persistence for panel layouts and saved filters
storage:
  driver: sqlite            # "sqlite" (default) or "memory"
  # path: ~/.parcelgrid/parcelgrid.db

# Layout behavior
layout:
  checkpoint_interval_ms: 500  # Throttle for persisting mid-drag frames
  min_width: 200               # Default panel size floors (pixels)
  min_height: 120

# Entity fetch cache
cache:
  disabled: false
  ttl_minutes: 10

# Watch the storage file for external writes and publish a bus event
watcher:
  enabled: false
  debounce_ms: 250

# Diagnostic logging
log:
  enabled: false
  level: info               # debug, info, warn, error
  # path: ~/.parcelgrid/parcelgrid.log

# Trace export
# tracing:
#   enabled: false
#   exporter: none          # none, stdout, otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with
// default settings and comments. Creates the parent directory if it
// doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
