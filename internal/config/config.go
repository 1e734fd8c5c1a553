// Package config provides configuration for the lectern service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "LECTERN_"

// Config holds the service configuration. Durations are configured in
// millisecond/hour integers so every knob maps to one environment variable.
type Config struct {
	HTTPPort    int    `koanf:"http_port"`
	DatabaseURL string `koanf:"database_url"`

	// LLM backend (OpenAI-compatible proxy)
	LLMBaseURL   string `koanf:"llm_base_url"`
	LLMAPIKey    string `koanf:"llm_api_key"`
	SummaryModel string `koanf:"summary_model"`
	ExtractModel string `koanf:"extract_model"`
	LLMTimeoutMs int    `koanf:"llm_timeout_ms"`

	// Transcript fetching
	FetchTimeoutMs int `koanf:"fetch_timeout_ms"`

	// Cache gate and cached-replay pacing
	CacheWindowHours   int `koanf:"cache_window_hours"`
	ReplayChunkSize    int `koanf:"replay_chunk_size"`
	ReplayChunkDelayMs int `koanf:"replay_chunk_delay_ms"`

	LogLevel string `koanf:"log_level"`
}

// NewDefault returns the configuration defaults.
func NewDefault() *Config {
	return &Config{
		HTTPPort:           8080,
		DatabaseURL:        "file:lectern.db?cache=shared&mode=rwc",
		LLMBaseURL:         "http://localhost:4000",
		SummaryModel:       "gemini-2.5-flash",
		ExtractModel:       "gpt-4o-mini",
		LLMTimeoutMs:       120000,
		FetchTimeoutMs:     30000,
		CacheWindowHours:   24 * 7,
		ReplayChunkSize:    50,
		ReplayChunkDelayMs: 20,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults overridden by LECTERN_*
// environment variables (LECTERN_HTTP_PORT, LECTERN_LLM_BASE_URL, ...).
func Load() (*Config, error) {
	cfg := NewDefault()

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be in 1..65535, got %d", c.HTTPPort)
	}
	if c.CacheWindowHours < 0 {
		return fmt.Errorf("cache_window_hours must be >= 0, got %d", c.CacheWindowHours)
	}
	if c.ReplayChunkSize <= 0 {
		return fmt.Errorf("replay_chunk_size must be > 0, got %d", c.ReplayChunkSize)
	}
	if c.ReplayChunkDelayMs < 0 {
		return fmt.Errorf("replay_chunk_delay_ms must be >= 0, got %d", c.ReplayChunkDelayMs)
	}
	return nil
}

// LLMTimeout returns the LLM request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

// FetchTimeout returns the transcript fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

// CacheWindow returns the freshness window for cached results.
func (c *Config) CacheWindow() time.Duration {
	return time.Duration(c.CacheWindowHours) * time.Hour
}

// ReplayChunkDelay returns the pacing delay between replayed chunks.
func (c *Config) ReplayChunkDelay() time.Duration {
	return time.Duration(c.ReplayChunkDelayMs) * time.Millisecond
}
