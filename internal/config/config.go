// Package config loads cronmgr settings from a YAML file and the environment.
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

// EnvPrefix prefixes environment overrides, e.g. CRONMGR_STORE_DRIVER
const EnvPrefix = "CRONMGR"

const (
	DriverCommand = "command"
	DriverFile    = "file"
	DriverDocker  = "docker"
)

// Config is the complete cronmgr configuration
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Parser  ParserConfig  `mapstructure:"parser"`
	History HistoryConfig `mapstructure:"history"`
	Events  EventsConfig  `mapstructure:"events"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StoreConfig selects where the table lives. Path is used by the file driver,
// Container by the docker driver; Binary and User by command and docker.
type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	Binary    string        `mapstructure:"binary"`
	User      string        `mapstructure:"user"`
	Path      string        `mapstructure:"path"`
	Container string        `mapstructure:"container"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ParserConfig struct {
	LenientLeadingDigits bool `mapstructure:"lenient_leading_digits"`
}

type HistoryConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

type EventsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Stream        string `mapstructure:"stream"`
}

type DaemonConfig struct {
	Names []string `mapstructure:"names"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("store.driver", DriverCommand)
	v.SetDefault("store.binary", "crontab")
	v.SetDefault("store.user", "")
	v.SetDefault("store.path", "")
	v.SetDefault("store.container", "")
	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("parser.lenient_leading_digits", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.retention", 30*24*time.Hour)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "nats://127.0.0.1:4222")
	v.SetDefault("events.subject_prefix", "cronmgr")
	v.SetDefault("events.stream", "CRONTAB")

	v.SetDefault("daemon.names", []string{"cron", "crond", "cronie", "busybox crond"})
}

func defaultHistoryPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cronmgr", "history.db")
	}
	return "cronmgr-history.db"
}

// Load reads configuration from path, or from cronmgr.yaml in ./config and
// $HOME/.config/cronmgr when path is empty. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cronmgr")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cronmgr"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected driver has what it needs
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverCommand:
	case DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the file driver", ErrInvalidConfig)
		}
	case DriverDocker:
		if c.Store.Container == "" {
			return fmt.Errorf("%w: store.container is required for the docker driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("%w: history.path is required when history is enabled", ErrInvalidConfig)
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("%w: events.url is required when events are enabled", ErrInvalidConfig)
	}
	return nil
}
