// Package config loads the nutrisync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the complete client configuration.
type Config struct {
	State   StateConfig   `yaml:"state"`
	Remote  RemoteConfig  `yaml:"remote"`
	Sync    SyncConfig    `yaml:"sync"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

// StateConfig configures the local state file.
type StateConfig struct {
	// Path is the state file (empty = $XDG_DATA_HOME/nutrisync/state.json)
	Path string `yaml:"path"`
	// PassphraseEnv names the environment variable holding the sealing
	// passphrase; the file is plain JSON when the variable is unset.
	PassphraseEnv string `yaml:"passphrase_env"`
}

// RemoteConfig configures the remote database.
type RemoteConfig struct {
	// DSN is the PostgreSQL connection string (empty = sync disabled)
	DSN string `yaml:"dsn"`
	// JWTKeyEnv names the environment variable with the HS256 key used to
	// verify access tokens; tokens are not verified when unset.
	JWTKeyEnv string `yaml:"jwt_key_env"`
}

// SyncConfig configures background push scheduling.
type SyncConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// CatalogConfig configures the food catalog client.
type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		State: StateConfig{
			PassphraseEnv: "NUTRISYNC_PASSPHRASE",
		},
		Remote: RemoteConfig{
			JWTKeyEnv: "NUTRISYNC_JWT_KEY",
		},
		Sync: SyncConfig{Debounce: 2 * time.Second},
		Catalog: CatalogConfig{
			BaseURL: "https://world.openfoodfacts.org",
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Dir returns $XDG_CONFIG_HOME/nutrisync, falling back to ~/.config/nutrisync.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "nutrisync")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nutrisync")
}

// DefaultPath returns the config file location under Dir.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Sync.Debounce < 0 {
		return fmt.Errorf("sync.debounce must not be negative")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog.timeout must be positive")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads path if it exists and returns defaults otherwise.
func Load(path string) (*Config, error) {
	c, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return c, err
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.State.Path != "" {
		c.State.Path = other.State.Path
	}
	if other.State.PassphraseEnv != "" {
		c.State.PassphraseEnv = other.State.PassphraseEnv
	}
	if other.Remote.DSN != "" {
		c.Remote.DSN = other.Remote.DSN
	}
	if other.Remote.JWTKeyEnv != "" {
		c.Remote.JWTKeyEnv = other.Remote.JWTKeyEnv
	}
	if other.Sync.Debounce != 0 {
		c.Sync.Debounce = other.Sync.Debounce
	}
	if other.Catalog.BaseURL != "" {
		c.Catalog.BaseURL = other.Catalog.BaseURL
	}
	if other.Catalog.Timeout != 0 {
		c.Catalog.Timeout = other.Catalog.Timeout
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// Passphrase returns the sealing passphrase from the environment, if set.
func (c *Config) Passphrase() []byte {
	if c.State.PassphraseEnv == "" {
		return nil
	}
	if v := os.Getenv(c.State.PassphraseEnv); v != "" {
		return []byte(v)
	}
	return nil
}

// JWTKey returns the token verification key from the environment, if set.
func (c *Config) JWTKey() []byte {
	if c.Remote.JWTKeyEnv == "" {
		return nil
	}
	if v := os.Getenv(c.Remote.JWTKeyEnv); v != "" {
		return []byte(v)
	}
	return nil
}
