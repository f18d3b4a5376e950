package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	// DBPath is the SQLite database file location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// SeedDir is the directory of checklist seed JSON files.
	SeedDir string `mapstructure:"seed_dir" yaml:"seed_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/checklist-sync/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "checklist-sync", "config.yaml")
}

func defaultConfig() *Config {
	return &Config{
		DBPath:   filepath.Join(".", "checklists.db"),
		SeedDir:  filepath.Join(".", "seeds"),
		LogLevel: "info",
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", filepath.Join(".", "checklists.db"))
	v.SetDefault("seed_dir", filepath.Join(".", "seeds"))
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
