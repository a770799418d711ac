package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parcelgrid/internal/config"
	"parcelgrid/internal/kv"
	"parcelgrid/internal/log"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "parcelgrid",
	Short: "Coordination core for multi-panel real-estate dashboards",
	Long: `Parcelgrid keeps independently rendered dashboard panels consistent:
a versioned event bus, persisted panel layouts, shared entity selection
and cross-panel filters. The CLI inspects and manages the persisted
state; see 'parcelgrid playground' for a live demo of the sync flow.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/parcelgrid/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().String("storage", "",
		"override storage path (sqlite database file)")

	_ = viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("storage.driver", defaults.Storage.Driver)
	viper.SetDefault("storage.path", defaults.Storage.Path)
	viper.SetDefault("layout.checkpoint_interval_ms", defaults.Layout.CheckpointIntervalMS)
	viper.SetDefault("layout.min_width", defaults.Layout.MinWidth)
	viper.SetDefault("layout.min_height", defaults.Layout.MinHeight)
	viper.SetDefault("cache.ttl_minutes", defaults.Cache.TTLMinutes)
	viper.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMS)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .parcelgrid/config.yaml (current directory)
		// 2. ~/.config/parcelgrid/config.yaml (user config)
		if _, err := os.Stat(".parcelgrid/config.yaml"); err == nil {
			viper.SetConfigFile(".parcelgrid/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "parcelgrid"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at
		// .parcelgrid/config.yaml and continue with defaults if the
		// write fails.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".parcelgrid/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)

	initLogging()
}

// initLogging starts file logging when enabled via config, --debug, or
// PARCELGRID_DEBUG. Logging failures never block the command.
func initLogging() {
	enabled := cfg.Log.Enabled || debug || os.Getenv("PARCELGRID_DEBUG") != ""
	if !enabled {
		return
	}

	path := cfg.Log.Path
	if path == "" {
		path = config.DefaultLogPath()
	}
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return
	}
	if _, err := log.Init(path); err != nil {
		return
	}
	if debug {
		log.SetMinLevel(log.LevelDebug)
	} else {
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	}
}

// openBackend opens the configured persistence backend. The sqlite
// driver degrades to memory when the file cannot be opened.
func openBackend() kv.Store {
	if cfg.Storage.Driver == "memory" {
		return kv.NewMemory()
	}
	path := cfg.Storage.Path
	if path == "" {
		path = config.DefaultStoragePath()
	}
	return kv.Open(path)
}

func validateConfig() error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
