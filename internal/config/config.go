// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects the execution mode. Guard mirroring runs only in prod;
// the /drop endpoint is served only in dev.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

type RuntimeConfig struct {
	Mode string
}

type GuardConfig struct {
	Token string `yaml:"token"` // control bot credential; optional outside prod
}

type HTTPConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // optional static bearer key for mutating routes
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables rate limiting
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CheckoutConfig struct {
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	Guard    GuardConfig    `yaml:"guard"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Checkout CheckoutConfig `yaml:"checkout"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path, mode string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3333
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Checkout.BaseURL == "" {
		return nil, errors.New("checkout.base_url is required")
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == ModeProd && cfg.Guard.Token == "" {
		return nil, errors.New("guard.token is required in prod mode")
	}

	cfg.Runtime.Mode = mode
	return &cfg, nil
}

func (c *Config) Dev() bool  { return c.Runtime.Mode == ModeDev }
func (c *Config) Prod() bool { return c.Runtime.Mode == ModeProd }
