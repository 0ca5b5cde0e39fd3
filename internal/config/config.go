package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nissyi-gh/todo/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TODO_STORAGE_DRIVER.
const EnvPrefix = "TODO"

// Config is the merged result of defaults, the config file and the environment.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Log       LogConfig       `mapstructure:"log"`
	UI        UIConfig        `mapstructure:"ui"`
}

type StorageConfig struct {
	// Driver is sqlite, file or memory.
	Driver string `mapstructure:"driver"`
	// Path is the database file (sqlite) or directory (file). Empty uses the XDG default.
	Path string `mapstructure:"path"`
}

type RemindersConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Lead    time.Duration `mapstructure:"lead"`
}

type LogConfig struct {
	File        string `mapstructure:"file"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type UIConfig struct {
	ShowCompleted bool   `mapstructure:"show_completed"`
	Filter        string `mapstructure:"filter"`
}

// SetDefaults registers every key so that env overrides apply even when the
// config file does not mention it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.lead", 10*time.Minute)
	v.SetDefault("log.file", DefaultLogPath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("ui.show_completed", true)
	v.SetDefault("ui.filter", string(model.FilterAll))
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or the default config file when path is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if def := DefaultPath(); def != "" {
		if _, err := os.Stat(def); err == nil {
			v.SetConfigFile(def)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", def, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", def, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (want sqlite, file or memory)", c.Storage.Driver)
	}
	if c.Reminders.Lead <= 0 {
		return fmt.Errorf("reminders.lead: must be positive, got %s", c.Reminders.Lead)
	}
	if _, err := model.ParseFilterKind(c.UI.Filter); err != nil {
		return fmt.Errorf("ui.filter: %w", err)
	}
	return nil
}

// Filter returns the configured initial filter tab.
func (c *Config) Filter() model.FilterKind {
	k, _ := model.ParseFilterKind(c.UI.Filter)
	return k
}

// DefaultPath returns $XDG_CONFIG_HOME/todo/config.yaml, or "" when no home is known.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "todo", "config.yaml")
}

// DefaultLogPath returns $XDG_STATE_HOME/todo/todo.log.
func DefaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "todo.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "todo", "todo.log")
}
