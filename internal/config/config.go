// Package config loads runtime settings from config.yaml and
// BRANDWATCH_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the resolved runtime configuration.
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Search   SearchConfig   `mapstructure:"search"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type CacheConfig struct {
	Dir string        `mapstructure:"dir"`
	TTL time.Duration `mapstructure:"ttl"`
}

type SearchConfig struct {
	// Provider selects the resolver implementation: "serp" or "rss".
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

type ClassifyConfig struct {
	// Backend selects the scorer: "zeroshot" (HTTP inference service)
	// or "keywords" (offline matcher).
	Backend  string `mapstructure:"backend"`
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Load reads config.yaml (optional) and the environment, and returns the
// merged configuration.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("search.provider", "serp")
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("classify.backend", "keywords")
	v.SetDefault("classify.endpoint", "")
	v.SetDefault("classify.token", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("BRANDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Search.Provider {
	case "serp", "rss":
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}
	switch c.Classify.Backend {
	case "keywords":
	case "zeroshot":
		if c.Classify.Endpoint == "" {
			return fmt.Errorf("classify.endpoint is required for the zeroshot backend")
		}
	default:
		return fmt.Errorf("unknown classify backend %q", c.Classify.Backend)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	return nil
}

// NewLogger builds the process logger from the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", c.Log.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	return zcfg.Build()
}
