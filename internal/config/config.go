// Package config handles application configuration using Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

// BackendConfig locates the errand-mate backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds each request. Zero means the built-in default.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig holds sign-in related settings.
type AuthConfig struct {
	// LoginPath is where authentication redirects land.
	LoginPath string `mapstructure:"login_path"`
	// GoogleClientID and AppleClientID identify this client to the OAuth
	// providers for social sign-in.
	GoogleClientID string `mapstructure:"google_client_id"`
	AppleClientID  string `mapstructure:"apple_client_id"`
}

// SessionConfig controls local session persistence.
type SessionConfig struct {
	// SnapshotPath is where the session snapshot lives between runs.
	// Empty disables persistence.
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment. Environment variables
// use the ERRANDMATE_ prefix with underscores, e.g. ERRANDMATE_BACKEND_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Join(home, ".errandmate"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ERRANDMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is OK, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.HasPrefix(cfg.Session.SnapshotPath, "~") {
		home, _ := os.UserHomeDir()
		cfg.Session.SnapshotPath = filepath.Join(home, cfg.Session.SnapshotPath[1:])
	}

	return &cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout_seconds", 30)
	v.SetDefault("auth.login_path", "/login")
	v.SetDefault("session.snapshot_path", filepath.Join(home, ".errandmate", "session.yaml"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
