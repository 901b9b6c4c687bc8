// SPDX-License-Identifier: MIT

// Package config assembles the daemon configuration from defaults, an
// optional YAML file and HEKATE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the full daemon configuration.
type AppConfig struct {
	// Listen is the API listen address.
	Listen string `yaml:"listen"`
	// MetricsListen is the Prometheus listen address. Empty disables the
	// metrics server.
	MetricsListen string `yaml:"metrics_listen"`
	// LogLevel is the zerolog level name (trace..panic).
	LogLevel string `yaml:"log_level"`

	HTTP      HTTPConfig      `yaml:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	History   HistoryConfig   `yaml:"history"`
	Lookup    LookupConfig    `yaml:"lookup"`
	API       APIConfig       `yaml:"api"`
}

// HTTPConfig tunes the outbound client.
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RandomizeAgent bool          `yaml:"randomize_agent"`
}

// RateLimitConfig tunes outbound request throttling.
type RateLimitConfig struct {
	GlobalRate   float64 `yaml:"global_rate"`
	GlobalBurst  int     `yaml:"global_burst"`
	PerHostRate  float64 `yaml:"per_host_rate"`
	PerHostBurst int     `yaml:"per_host_burst"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	// Backend is one of memory, redis or none.
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// HistoryConfig tunes the lookup history store. An empty Dir keeps history
// in memory only.
type HistoryConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

// LookupConfig selects the providers and their behaviour.
type LookupConfig struct {
	// Methods lists providers in priority order (website, wikipedia, google).
	Methods []string `yaml:"methods"`
	// WikipediaLangs are the wiki language editions searched, in order.
	WikipediaLangs []string `yaml:"wikipedia_langs"`
	// Concurrency caps how many providers run at once per lookup.
	Concurrency int `yaml:"concurrency"`
	// RulesFile points at a YAML file with website rules and aliases. The
	// file is watched and hot-reloaded when set.
	RulesFile string `yaml:"rules_file"`
}

// APIConfig tunes the inbound HTTP surface.
type APIConfig struct {
	// RateLimit is the per-client request budget per minute. Zero disables
	// inbound rate limiting.
	RateLimit int `yaml:"rate_limit"`
	// CORSOrigins lists allowed origins. Empty allows none.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Defaults returns the stock configuration.
func Defaults() AppConfig {
	return AppConfig{
		Listen:        ":8080",
		MetricsListen: ":9090",
		LogLevel:      "info",
		HTTP: HTTPConfig{
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RandomizeAgent: true,
		},
		RateLimit: RateLimitConfig{
			GlobalRate:   10,
			GlobalBurst:  20,
			PerHostRate:  2,
			PerHostBurst: 4,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     time.Hour,
		},
		History: HistoryConfig{
			Dir: "data/history",
			TTL: 90 * 24 * time.Hour,
		},
		Lookup: LookupConfig{
			Methods:        []string{"website", "wikipedia", "google"},
			WikipediaLangs: []string{"en", "pt"},
			Concurrency:    3,
		},
		API: APIConfig{
			RateLimit: 60,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then HEKATE_* environment variables.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	c.Listen = ParseString("HEKATE_LISTEN", c.Listen)
	c.MetricsListen = ParseString("HEKATE_METRICS_LISTEN", c.MetricsListen)
	c.LogLevel = ParseString("HEKATE_LOG_LEVEL", c.LogLevel)

	c.HTTP.Timeout = ParseDuration("HEKATE_HTTP_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.MaxRetries = ParseInt("HEKATE_HTTP_MAX_RETRIES", c.HTTP.MaxRetries)
	c.HTTP.RandomizeAgent = ParseBool("HEKATE_HTTP_RANDOMIZE_AGENT", c.HTTP.RandomizeAgent)

	c.RateLimit.GlobalRate = ParseFloat("HEKATE_RATE_GLOBAL", c.RateLimit.GlobalRate)
	c.RateLimit.GlobalBurst = ParseInt("HEKATE_RATE_GLOBAL_BURST", c.RateLimit.GlobalBurst)
	c.RateLimit.PerHostRate = ParseFloat("HEKATE_RATE_PER_HOST", c.RateLimit.PerHostRate)
	c.RateLimit.PerHostBurst = ParseInt("HEKATE_RATE_PER_HOST_BURST", c.RateLimit.PerHostBurst)

	c.Cache.Backend = ParseString("HEKATE_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.TTL = ParseDuration("HEKATE_CACHE_TTL", c.Cache.TTL)
	c.Cache.RedisAddr = ParseString("HEKATE_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = ParseString("HEKATE_REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = ParseInt("HEKATE_REDIS_DB", c.Cache.RedisDB)

	c.History.Dir = ParseString("HEKATE_HISTORY_DIR", c.History.Dir)
	c.History.TTL = ParseDuration("HEKATE_HISTORY_TTL", c.History.TTL)

	c.Lookup.Methods = ParseStringSlice("HEKATE_LOOKUP_METHODS", c.Lookup.Methods)
	c.Lookup.WikipediaLangs = ParseStringSlice("HEKATE_WIKIPEDIA_LANGS", c.Lookup.WikipediaLangs)
	c.Lookup.Concurrency = ParseInt("HEKATE_LOOKUP_CONCURRENCY", c.Lookup.Concurrency)
	c.Lookup.RulesFile = ParseString("HEKATE_RULES_FILE", c.Lookup.RulesFile)

	c.API.RateLimit = ParseInt("HEKATE_API_RATE_LIMIT", c.API.RateLimit)
	c.API.CORSOrigins = ParseStringSlice("HEKATE_CORS_ORIGINS", c.API.CORSOrigins)
}

// Validate rejects configurations that cannot work.
func (c *AppConfig) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid cache backend %q (want memory, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires a redis address")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http max retries must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if len(c.Lookup.Methods) == 0 {
		return fmt.Errorf("at least one lookup method is required")
	}
	return nil
}
