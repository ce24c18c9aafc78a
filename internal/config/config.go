// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	AdminAPIKey  string        `yaml:"admin_api_key"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	HistoryLimit  int           `yaml:"history_limit"` // retained non-system turns
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

type AIConfig struct {
	OpenRouterKeyPrimary   string        `yaml:"openrouter_key_primary"`
	OpenRouterKeySecondary string        `yaml:"openrouter_key_secondary"`
	OpenRouterBaseURL      string        `yaml:"openrouter_base_url"`
	GeminiKey              string        `yaml:"gemini_key"`
	StandardModel          string        `yaml:"standard_model"`
	AdvancedModel          string        `yaml:"advanced_model"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	MaxRetries             int           `yaml:"max_retries"`
	ConcurrentLimit        int           `yaml:"concurrent_limit"` // max concurrent backend calls
}

type ContentConfig struct {
	DataDir string `yaml:"data_dir"` // holds faq_<lang>.json and glossary_<lang>.json
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Session   SessionConfig   `yaml:"session"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	AI        AIConfig        `yaml:"ai"`
	Content   ContentConfig   `yaml:"content"`
	Languages []string        `yaml:"languages"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if !dev && cfg.AI.OpenRouterKeyPrimary == "" && cfg.AI.GeminiKey == "" {
		return nil, errors.New("ai.openrouter_key_primary or ai.gemini_key is required")
	}
	if cfg.Server.AdminAPIKey == "" {
		return nil, errors.New("server.admin_api_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 4 * time.Hour
	}
	if cfg.Session.SweepInterval <= 0 {
		cfg.Session.SweepInterval = 5 * time.Minute
	}
	if cfg.Session.HistoryLimit <= 0 {
		cfg.Session.HistoryLimit = 20
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 60
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 30 * time.Minute
	}
	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = 1000
	}
	if cfg.AI.OpenRouterBaseURL == "" {
		cfg.AI.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.AI.StandardModel == "" {
		cfg.AI.StandardModel = "mistralai/mistral-nemo:free"
	}
	if cfg.AI.AdvancedModel == "" {
		cfg.AI.AdvancedModel = "meta-llama/llama-3.3-70b-instruct:free"
	}
	if cfg.AI.RequestTimeout <= 0 {
		cfg.AI.RequestTimeout = 30 * time.Second
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 2
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Content.DataDir == "" {
		cfg.Content.DataDir = "data"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en", "fr", "pt", "es", "sw", "hi"}
	}
}

// Allowed reports whether lang is in the configured allowlist.
func (cfg *Config) Allowed(lang string) bool {
	for _, l := range cfg.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
