// Package config handles configuration loading and validation for slotgraph.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/imyousuf/slotgraph/internal/engine"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".slotgraph"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// EnvPrefix prefixes environment overrides, e.g. SLOTGRAPH_GRAPH_ID_WIDTH.
	EnvPrefix = "SLOTGRAPH"
)

// Config holds all configuration for slotgraph.
type Config struct {
	// Graph selects the snapshot file and the graph shape.
	Graph GraphConfig `mapstructure:"graph" yaml:"graph"`
	// Archive configures the snapshot catalog.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	// Watch configures snapshot reloading.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
	// Log configures CLI logging.
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// GraphConfig holds snapshot and graph shape settings.
type GraphConfig struct {
	// Snapshot is the path of the snapshot file.
	Snapshot string `mapstructure:"snapshot" yaml:"snapshot"`
	// IDWidth is the node id width in bits (8, 16, 32 or 64).
	IDWidth int `mapstructure:"id_width" yaml:"id_width"`
	// Strategy is the fan-out strategy (hash or flat).
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
}

// ArchiveConfig holds snapshot catalog settings.
type ArchiveConfig struct {
	// Path is the badger directory of the catalog.
	Path string `mapstructure:"path" yaml:"path"`
}

// WatchConfig holds snapshot watching settings.
type WatchConfig struct {
	// Debounce collapses bursts of writes into one reload.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
}

// Load loads configuration from file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// A config file passed with --config is stored in the global viper.
	if configFile := viper.GetString("config_file"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			Snapshot: "graph.slot",
			IDWidth:  32,
			Strategy: string(engine.StrategyHash),
		},
		Archive: ArchiveConfig{Path: ".slotgraph-archive"},
		Watch:   WatchConfig{Debounce: 100 * time.Millisecond},
		Log:     LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Graph.Snapshot == "" {
		return fmt.Errorf("graph snapshot path is required")
	}
	if !engine.ValidWidth(c.Graph.IDWidth) {
		return fmt.Errorf("graph id_width must be one of %v, got %d", engine.Widths, c.Graph.IDWidth)
	}
	if _, err := engine.ParseStrategy(c.Graph.Strategy); err != nil {
		return fmt.Errorf("graph strategy: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative, got %s", c.Watch.Debounce)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// EngineOptions returns the graph shape selected by the configuration.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{Width: c.Graph.IDWidth, Strategy: engine.Strategy(c.Graph.Strategy)}
}

// ResolveSnapshot returns override when set, otherwise the configured
// snapshot path.
func (c *Config) ResolveSnapshot(override string) string {
	if override != "" {
		return override
	}
	return c.Graph.Snapshot
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("graph.snapshot", d.Graph.Snapshot)
	v.SetDefault("graph.id_width", d.Graph.IDWidth)
	v.SetDefault("graph.strategy", d.Graph.Strategy)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
}
