// Package config handles configuration loading for the cadastre commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/cadastre-client/pkg/cache"
	"github.com/Sternrassler/cadastre-client/pkg/client"
	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
	"github.com/Sternrassler/cadastre-client/pkg/project"
)

// MaxPageSize is the largest page the VWorld data API serves.
const MaxPageSize = 1000

// Config represents the root configuration file structure.
type Config struct {
	API        API         `yaml:"api"`
	Pagination Pagination  `yaml:"pagination"`
	Retry      Retry       `yaml:"retry"`
	Redis      Redis       `yaml:"redis"`
	Cache      Cache       `yaml:"cache"`
	Project    Project     `yaml:"project"`
	Preloaded  []Preloaded `yaml:"preloaded,omitempty"`
}

// API configures the VWorld client.
type API struct {
	BaseURL           string        `yaml:"base_url"`
	Key               string        `yaml:"key"`
	Domain            string        `yaml:"domain,omitempty"`
	Layer             string        `yaml:"layer"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// Pagination configures region collection.
type Pagination struct {
	PageSize  int           `yaml:"page_size"`
	MaxPages  int           `yaml:"max_pages"`
	PageDelay time.Duration `yaml:"page_delay"`
}

// Retry configures whole-region retries on transport failures.
type Retry struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

// Redis configures the shared Redis connection. An empty Addr disables the
// region cache and the Redis project store.
type Redis struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Cache configures the Redis region cache.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

// Project configures project persistence.
type Project struct {
	Name     string `yaml:"name,omitempty"`
	File     string `yaml:"file,omitempty"`
	RedisKey string `yaml:"redis_key,omitempty"`
	Quota    int    `yaml:"quota,omitempty"`
}

// Preloaded maps a region query to a GeoJSON file served without network
// access.
type Preloaded struct {
	Query string `yaml:"query"`
	File  string `yaml:"file"`
}

// Default returns the configuration matching the VWorld API limits.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL:           client.DefaultBaseURL,
			Layer:             client.DefaultLayer,
			Timeout:           client.DefaultTimeout,
			RequestsPerSecond: 5,
			Burst:             1,
		},
		Pagination: Pagination{
			PageSize:  pagination.DefaultPageSize,
			MaxPages:  pagination.DefaultMaxPages,
			PageDelay: pagination.DefaultPageDelay,
		},
		Retry: Retry{
			MaxAttempts:    1,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
		},
		Cache: Cache{
			TTL: cache.DefaultTTL,
		},
		Project: Project{
			RedisKey: project.DefaultStateKey,
			Quota:    project.DefaultQuota,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Omitted settings keep their defaults and ${VAR} references are expanded
// from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Key == "" {
		errs = append(errs, errors.New("api.key is required"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if c.Pagination.PageSize < 1 || c.Pagination.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("pagination.page_size must be between 1 and %d (got %d)", MaxPageSize, c.Pagination.PageSize))
	}
	if c.Pagination.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("pagination.max_pages must be positive (got %d)", c.Pagination.MaxPages))
	}
	if c.Pagination.PageDelay < 0 {
		errs = append(errs, errors.New("pagination.page_delay must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be positive (got %d)", c.Retry.MaxAttempts))
	}
	for i, p := range c.Preloaded {
		if p.Query == "" || p.File == "" {
			errs = append(errs, fmt.Errorf("preloaded[%d] needs query and file", i))
		}
	}

	return errors.Join(errs...)
}

// ClientConfig returns the VWorld client configuration.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.API.Key, c.API.Domain)
	cfg.BaseURL = c.API.BaseURL
	cfg.Layer = c.API.Layer
	cfg.Timeout = c.API.Timeout
	cfg.RequestsPerSecond = c.API.RequestsPerSecond
	cfg.Burst = c.API.Burst
	return cfg
}

// CollectorConfig returns the region collector configuration without
// preloaded sources.
func (c *Config) CollectorConfig() pagination.Config {
	cfg := pagination.DefaultConfig()
	cfg.PageSize = c.Pagination.PageSize
	cfg.MaxPages = c.Pagination.MaxPages
	cfg.PageDelay = c.Pagination.PageDelay
	return cfg
}

// RetryConfig returns the region retry configuration.
func (c *Config) RetryConfig() pagination.RetryConfig {
	return pagination.RetryConfig{
		MaxAttempts:       c.Retry.MaxAttempts,
		InitialBackoff:    c.Retry.InitialBackoff,
		MaxBackoff:        c.Retry.MaxBackoff,
		BackoffMultiplier: c.Retry.Multiplier,
	}
}

// LoadPreloaded reads every preloaded GeoJSON file.
func (c *Config) LoadPreloaded() (pagination.StaticDatasets, error) {
	datasets := make(pagination.StaticDatasets, len(c.Preloaded))
	for _, p := range c.Preloaded {
		collection, err := feature.LoadFile(p.File)
		if err != nil {
			return nil, fmt.Errorf("load preloaded region %s: %w", p.Query, err)
		}
		datasets[p.Query] = collection
	}
	return datasets, nil
}
