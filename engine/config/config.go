package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config is the host-facing engine configuration, loaded from a TOML file
// with environment overrides. Zero values fall back to Default().
type Config struct {
	/** @brief The relative base path for assets on disk. */
	AssetBasePath string `toml:"asset_base_path" env:"ATLAS_ASSET_BASE_PATH"`
	/** @brief Watch the asset tree and report changed paths. */
	WatchAssets bool `toml:"watch_assets" env:"ATLAS_WATCH_ASSETS"`
	/** @brief Number of storage read workers. */
	Workers int `toml:"workers" env:"ATLAS_WORKERS"`
	/** @brief Buffered read-task queue size. */
	ReadQueueSize int `toml:"read_queue_size" env:"ATLAS_READ_QUEUE_SIZE"`
	/** @brief Log level: debug, info, warn or error. */
	LogLevel string `toml:"log_level" env:"ATLAS_LOG_LEVEL"`
	/** @brief Active feature/plugin names recorded in snapshot manifests. */
	Capabilities []string `toml:"capabilities" env:"ATLAS_CAPABILITIES"`
}

func Default() Config {
	return Config{
		AssetBasePath: "assets",
		Workers:       4,
		ReadQueueSize: 128,
		LogLevel:      "info",
	}
}

// Load reads the TOML file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config - reading '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config - parsing '%s': %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config - environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.AssetBasePath == "" {
		return fmt.Errorf("config - asset_base_path must not be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config - workers must be > 0")
	}
	if c.ReadQueueSize < 0 {
		return fmt.Errorf("config - read_queue_size must be >= 0")
	}
	return nil
}
