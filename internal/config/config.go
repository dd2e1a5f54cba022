// Package config loads upt settings from defaults, an optional YAML file and
// UPT_* environment variables.
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

const (
	// AppName is the application name.
	AppName = "upt"
	// EnvPrefix prefixes every environment variable, e.g. UPT_DOWNLOAD_DIR.
	EnvPrefix = "UPT"
)

// Version is overridden at build time with -ldflags "-X ...config.Version=..."
var Version = "dev"

// Config contains the settings shared by dispatch and the bundled plugins
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	// Registries overrides the base URL of a registry frontend, by ecosystem
	Registries map[string]string `mapstructure:"registries"`
	Sign       SignConfig        `mapstructure:"sign"`
}

// DownloadConfig controls how archives are fetched
type DownloadConfig struct {
	Dir       string        `mapstructure:"dir"` // empty means os.TempDir()
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"user_agent"`
}

// SignConfig points to the OpenPGP key used to sign backend output
type SignConfig struct {
	Key        string `mapstructure:"key"`
	Passphrase string `mapstructure:"passphrase"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			Timeout:   5 * time.Minute,
			Retries:   3,
			UserAgent: AppName + "/" + Version,
		},
		Registries: map[string]string{},
	}
}

// Dir returns the upt configuration directory ($XDG_CONFIG_HOME/upt or ~/.config/upt)
func Dir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. An explicit path must exist; without one the
// default config.yaml in Dir() is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("download.dir", defaults.Download.Dir)
	v.SetDefault("download.timeout", defaults.Download.Timeout)
	v.SetDefault("download.retries", defaults.Download.Retries)
	v.SetDefault("download.user_agent", defaults.Download.UserAgent)
	v.SetDefault("sign.key", "")
	v.SetDefault("sign.passphrase", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if dir, err := Dir(); err == nil {
			candidate := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot constrain
func (c *Config) Validate() error {
	if c.Download.Retries < 0 {
		return errors.New("download.retries must not be negative")
	}
	if c.Download.Timeout < 0 {
		return errors.New("download.timeout must not be negative")
	}
	return nil
}
