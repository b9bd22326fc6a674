// Package config loads the consoleproxy command configuration from a YAML
// file, with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cyberegoorg/consoleproxy"
	"github.com/cyberegoorg/consoleproxy/internal/logger"
)

// Config is the root of the configuration file.
type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Logging logger.Config `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
}

// ConsoleConfig describes how to reach the engine console.
type ConsoleConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"`

	// URL is the WebSocket bridge URL, used with transport "websocket".
	URL string `yaml:"url"`

	// DrainTimeout bounds the disconnect handshake (e.g. "3s").
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// ConnectTimeout bounds how long one-shot commands wait for the console.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// StoreConfig configures the persistent log history.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`

	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Console: ConsoleConfig{
			Address:        "localhost",
			Port:           4447,
			Transport:      consoleproxy.TransportENet,
			DrainTimeout:   3 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
		Logging: logger.DefaultConfig(),
		Store: StoreConfig{
			Enabled:    false,
			Driver:     "sqlite",
			SQLitePath: "data/console.db",
		},
	}
}

// Load reads the configuration file at path over the defaults, then applies
// environment overrides (LOG_*, CONSOLEPROXY_*, DATABASE_URL). A missing file is not an error; the defaults are
// used instead.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	logger.ApplyEnv(&cfg.Logging)

	if v := os.Getenv("CONSOLEPROXY_ADDRESS"); v != "" {
		cfg.Console.Address = v
	}
	if v := os.Getenv("CONSOLEPROXY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONSOLEPROXY_PORT %q: %w", v, err)
		}
		cfg.Console.Port = port
	}
	if v := os.Getenv("CONSOLEPROXY_TRANSPORT"); v != "" {
		cfg.Console.Transport = v
	}
	if v := os.Getenv("CONSOLEPROXY_URL"); v != "" {
		cfg.Console.URL = v
	}

	if v := os.Getenv("CONSOLEPROXY_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.PostgresDSN = v
	}
	return nil
}

// Validate checks the values the command cannot work around.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.Enabled && c.Store.Driver == "postgres" && c.Store.PostgresDSN == "" {
		return errors.New("store.postgres_dsn is required for the postgres driver (or set DATABASE_URL)")
	}
	if c.Console.ConnectTimeout < 0 {
		return errors.New("console.connect_timeout must not be negative")
	}
	return nil
}

// ClientConfig converts the console section into a client configuration.
// Fields left empty fall back to the client's own defaults.
func (c ConsoleConfig) ClientConfig() consoleproxy.Config {
	return consoleproxy.Config{
		Address:      c.Address,
		Port:         c.Port,
		Transport:    c.Transport,
		URL:          c.URL,
		DrainTimeout: c.DrainTimeout,
	}
}
