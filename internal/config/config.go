// Package config loads application settings from klimat.yaml and the
// KLIMAT_ environment, with working defaults for a fresh install.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	// DBPath is the SQLite database location
	DBPath string `mapstructure:"db_path"`

	// ServerURL is the regional data service base URL
	ServerURL string `mapstructure:"server_url"`

	// SpoolDir is watched for snapshot files to import
	SpoolDir string `mapstructure:"spool_dir"`

	// DashboardPort serves the local status API and WebSocket feed
	DashboardPort int `mapstructure:"dashboard_port"`

	// LogFile enables rotating file logs for the daemon when set
	LogFile string `mapstructure:"log_file"`

	FlushInterval        time.Duration `mapstructure:"flush_interval"`
	PriceRefreshInterval time.Duration `mapstructure:"price_refresh_interval"`
	ProbeInterval        time.Duration `mapstructure:"probe_interval"`
}

// DataDir returns the default data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klimat"
	}
	return filepath.Join(home, ".klimat")
}

// Load reads klimat.yaml from the working directory or the data
// directory, then applies KLIMAT_ environment overrides. A missing
// config file is fine; defaults carry a fresh install.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("klimat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(DataDir())

	v.SetDefault("db_path", filepath.Join(DataDir(), "klimat.db"))
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("spool_dir", filepath.Join(DataDir(), "spool"))
	v.SetDefault("dashboard_port", 8765)
	v.SetDefault("log_file", "")
	v.SetDefault("flush_interval", 30*time.Second)
	v.SetDefault("price_refresh_interval", 6*time.Hour)
	v.SetDefault("probe_interval", 15*time.Second)

	v.SetEnvPrefix("KLIMAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
