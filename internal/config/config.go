package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/muralproject/mural/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Series  map[string]SeriesEntry `mapstructure:"series"`
	Assets  AssetConfig            `mapstructure:"assets"`
	Loader  LoaderConfig           `mapstructure:"loader"`
	Cache   CacheConfig            `mapstructure:"cache"`
	UI      UIConfig               `mapstructure:"ui"`
	Logging LoggingConfig          `mapstructure:"logging"`
}

// SeriesEntry configures one content series
type SeriesEntry struct {
	Name            string `mapstructure:"name"`              // Display name
	IndexURL        string `mapstructure:"index_url"`         // Manifest document URL
	CategoryBaseURL string `mapstructure:"category_base_url"` // Base URL for category shards
	LegacyDataURL   string `mapstructure:"legacy_data_url"`   // Optional monolithic fallback URL
}

// AssetConfig holds asset URL resolution settings
type AssetConfig struct {
	BaseURL string `mapstructure:"base_url"` // Absolute base for relative asset paths
	Version string `mapstructure:"version"`  // Cache-busting version token ("" = none)
}

// LoaderConfig holds progressive loading tunables
type LoaderConfig struct {
	InitialWindow   int `mapstructure:"initial_window"`    // Categories fetched before first paint
	BatchSize       int `mapstructure:"batch_size"`        // Categories per background batch
	BatchPauseMS    int `mapstructure:"batch_pause_ms"`    // Pause between background batches
	DecodeThreshold int `mapstructure:"decode_threshold"`  // Min blob size for pool offload
	DecodeWorkers   int `mapstructure:"decode_workers"`    // Decode pool size (0 = in-line only)
}

// BatchPause returns the inter-batch pause as a duration.
func (c LoaderConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMS) * time.Millisecond
}

// CacheConfig holds the persistent cache location
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty = memory-only mode
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultSeries string `mapstructure:"default_series"` // Series activated at startup
	GridColumns   int    `mapstructure:"grid_columns"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Series: map[string]SeriesEntry{},
		Assets: AssetConfig{
			BaseURL: "",
			Version: "",
		},
		Loader: LoaderConfig{
			InitialWindow:   3,
			BatchSize:       3,
			BatchPauseMS:    150,
			DecodeThreshold: 1000,
			DecodeWorkers:   2,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		UI: UIConfig{
			DefaultSeries: "",
			GridColumns:   4,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "mural", "mural.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "mural", "mural.log")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "mural", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "mural", "cache")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "mural")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "mural")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("MURAL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("series", cfg.Series)

	viper.Set("assets.base_url", cfg.Assets.BaseURL)
	viper.Set("assets.version", cfg.Assets.Version)

	viper.Set("loader.initial_window", cfg.Loader.InitialWindow)
	viper.Set("loader.batch_size", cfg.Loader.BatchSize)
	viper.Set("loader.batch_pause_ms", cfg.Loader.BatchPauseMS)
	viper.Set("loader.decode_threshold", cfg.Loader.DecodeThreshold)
	viper.Set("loader.decode_workers", cfg.Loader.DecodeWorkers)

	viper.Set("cache.dir", cfg.Cache.Dir)

	viper.Set("ui.default_series", cfg.UI.DefaultSeries)
	viper.Set("ui.grid_columns", cfg.UI.GridColumns)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if at least one series is defined
func (c *Config) IsConfigured() bool {
	return len(c.Series) > 0
}

// SeriesTable converts the configured series entries into the domain table
func (c *Config) SeriesTable() domain.SeriesTable {
	table := make(domain.SeriesTable, len(c.Series))
	for id, entry := range c.Series {
		table[id] = domain.SeriesConfig{
			ID:              id,
			Name:            entry.Name,
			IndexURL:        entry.IndexURL,
			CategoryBaseURL: entry.CategoryBaseURL,
			LegacyDataURL:   entry.LegacyDataURL,
		}
	}
	return table
}
