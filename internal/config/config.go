// Package config loads the application configuration: a YAML file
// under the user's config directory, overridable by environment
// variables and an optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TN"

// Config holds the central application configuration
type Config struct {
	// API backend configuration
	API struct {
		BaseURL string        `mapstructure:"base_url"` // Backend base URL
		Timeout time.Duration `mapstructure:"timeout"`  // Per-request timeout
	} `mapstructure:"api"`

	// Local state files
	State struct {
		TokenPath    string `mapstructure:"token_path"`    // Saved credentials
		SnapshotPath string `mapstructure:"snapshot_path"` // Offline cache snapshot
	} `mapstructure:"state"`
}

// LoadConfig loads the configuration from a file. An empty path means
// the default location under the user config dir; a missing file is
// fine, defaults and environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	// A .env next to the binary is developer convenience only.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	stateDir := defaultStateDir()
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("state.token_path", filepath.Join(stateDir, "credentials.yaml"))
	v.SetDefault("state.snapshot_path", filepath.Join(stateDir, "snapshot.db"))

	if path == "" {
		path = filepath.Join(stateDir, "config.yaml")
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine; a broken one is not.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// defaultStateDir is where tokens, snapshots and the default config
// file live.
func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "tomorrows-news")
}
