package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Store struct {
		// Path to the sqlite session log; empty disables it.
		Path          string        `yaml:"path"`
		Retention     int           `yaml:"retention"`
		PruneInterval time.Duration `yaml:"prune_interval"`
	} `yaml:"store"`

	RateLimit struct {
		MessagesPerSecond float64 `yaml:"messages_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Address = ":8080"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Store.Path = "./data/inkwell.db"
	cfg.Store.Retention = 500
	cfg.Store.PruneInterval = time.Hour
	cfg.RateLimit.MessagesPerSecond = 100
	cfg.RateLimit.Burst = 200
	cfg.Logging.Level = "info"
	return cfg
}

// Load builds the configuration from defaults, then the yaml file at path
// (if given), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("INKWELL_ADDR"); addr != "" {
		cfg.Server.Address = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
	if path, ok := os.LookupEnv("INKWELL_DB_PATH"); ok {
		cfg.Store.Path = path
	}
	if level := os.Getenv("INKWELL_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	if c.RateLimit.MessagesPerSecond <= 0 {
		return fmt.Errorf("rate_limit.messages_per_second must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0")
	}
	if c.Store.Path != "" {
		if c.Store.Retention <= 0 {
			return fmt.Errorf("store.retention must be > 0")
		}
		if c.Store.PruneInterval <= 0 {
			return fmt.Errorf("store.prune_interval must be > 0")
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
