// Package config loads settings from config.yaml in the config directory
// and then from LIFEPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/lifeplan/internal/constants"
)

type Config struct {
	// Database is a SQLite file path or a postgres:// URL. Empty means the
	// keyring entry, or else the default SQLite file.
	Database string `yaml:"database,omitempty" envconfig:"DATABASE"`
	// Owner is the owner id used by the CLI and TUI.
	Owner     string       `yaml:"owner,omitempty" envconfig:"OWNER"`
	Debug     bool         `yaml:"debug,omitempty" envconfig:"DEBUG"`
	ConfigDir string       `yaml:"-" envconfig:"CONFIG_DIR"`
	View      ViewConfig   `yaml:"view"`
	Server    ServerConfig `yaml:"server"`
}

type ViewConfig struct {
	DefaultMode string `yaml:"default_mode" envconfig:"DEFAULT_MODE"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" envconfig:"ADDR"`
	BasePath  string `yaml:"base_path" envconfig:"BASE_PATH"`
	JWTSecret string `yaml:"jwt_secret,omitempty" envconfig:"JWT_SECRET"`
}

// Default returns the built-in settings for configDir.
func Default(configDir string) *Config {
	return &Config{
		Owner:     constants.DefaultOwner,
		ConfigDir: configDir,
		View:      ViewConfig{DefaultMode: constants.DefaultViewMode},
		Server: ServerConfig{
			Addr:     constants.DefaultServerAddr,
			BasePath: constants.DefaultServerBasePath,
		},
	}
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.ConfigFileName)
}

// Load resolves the config directory (configDir, else LIFEPLAN_CONFIG_DIR,
// else the default), reads config.yaml from it when present, and applies
// environment overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = os.Getenv(constants.EnvPrefix + "_CONFIG_DIR")
	}
	if configDir == "" {
		configDir = constants.DefaultConfigDir
	}
	dir, err := ExpandHome(configDir)
	if err != nil {
		return nil, err
	}

	cfg := Default(dir)
	data, err := os.ReadFile(Path(dir))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", Path(dir), err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", Path(dir), err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.ConfigDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays LIFEPLAN_* variables. Nested groups use their own
// prefix, e.g. LIFEPLAN_SERVER_ADDR and LIFEPLAN_VIEW_DEFAULT_MODE.
func applyEnv(cfg *Config) error {
	configDir := cfg.ConfigDir
	if err := envconfig.Process(constants.EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.ConfigDir = configDir
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	switch strings.ToLower(c.View.DefaultMode) {
	case "day", "week", "month", "once":
	default:
		return fmt.Errorf("invalid view.default_mode %q (expected day, week, month or once)", c.View.DefaultMode)
	}
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("owner cannot be empty")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path %q must start with /", c.Server.BasePath)
	}
	return nil
}

// DefaultDatabasePath is the SQLite file used when no database is configured.
func (c *Config) DefaultDatabasePath() string {
	return filepath.Join(c.ConfigDir, constants.DefaultDBName)
}

// Save writes c to config.yaml in its config directory. The JWT secret is
// never written.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	out := *c
	out.Server.JWTSecret = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(c.ConfigDir), data, 0600)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
