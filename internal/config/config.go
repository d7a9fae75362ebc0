// Package config loads larapush settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/larapush/larapush-go/internal/store"
	"github.com/larapush/larapush-go/pkg/push"
)

type Config struct {
	PanelURL  string        `yaml:"panel_url" env:"LARAPUSH_PANEL_URL" validate:"required,url"`
	Namespace string        `yaml:"namespace" env:"LARAPUSH_NAMESPACE" validate:"required"`
	Debug     bool          `yaml:"debug" env:"LARAPUSH_DEBUG" env-default:"false"`
	Timeout   time.Duration `yaml:"timeout" env:"LARAPUSH_TIMEOUT" env-default:"5s" validate:"gt=0"`
	// Token pins the device token instead of minting one locally.
	Token string      `yaml:"token" env:"LARAPUSH_TOKEN"`
	Store StoreConfig `yaml:"store"`
	NATS  NATSConfig  `yaml:"nats"`
	HTTP  HTTPConfig  `yaml:"http"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend" env:"LARAPUSH_STORE" env-default:"sqlite" validate:"oneof=sqlite redis memory"`
	Path          string `yaml:"path" env:"LARAPUSH_STORE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"LARAPUSH_REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redis_password" env:"LARAPUSH_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"LARAPUSH_REDIS_DB" env-default:"0"`
	RedisPrefix   string `yaml:"redis_prefix" env:"LARAPUSH_REDIS_PREFIX" env-default:"larapush:"`
}

type NATSConfig struct {
	URL     string `yaml:"url" env:"LARAPUSH_NATS_URL"`
	Subject string `yaml:"subject" env:"LARAPUSH_NATS_SUBJECT" env-default:"larapush"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr" env:"LARAPUSH_HTTP_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"LARAPUSH_HTTP_ORIGINS" env-separator:","`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads path (when non-empty) and then the environment, which wins.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path, err = defaultStorePath()
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return &cfg, nil
}

// defaultStorePath returns ~/.larapush/prefs.db.
func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".larapush", "prefs.db"), nil
}

// Push returns the core helper's config.
func (c *Config) Push() push.Config {
	return push.Config{PanelURL: c.PanelURL, Namespace: c.Namespace, Debug: c.Debug}
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Store.Backend,
		Path:          c.Store.Path,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		RedisPrefix:   c.Store.RedisPrefix,
	}
}

// Logger builds a text logger on w; Debug lowers the level to debug.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
