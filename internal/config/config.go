// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the advisor.
//
// Settings come from a TOML file with sensible defaults and a few
// environment variable overrides. File location (in order of
// precedence):
//   - path passed explicitly (e.g. the -config flag)
//   - ~/.asesor/config.toml
//   - built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete advisor configuration.
type Config struct {
	Conversation ConversationConfig `toml:"conversation" json:"conversation"`
	LLM          LLMConfig          `toml:"llm" json:"llm"`
	Search       SearchConfig       `toml:"search" json:"search"`
	Catalog      CatalogConfig      `toml:"catalog" json:"catalog"`
	Storage      StorageConfig      `toml:"storage" json:"storage"`
	Server       ServerConfig       `toml:"server" json:"server"`
}

// ConversationConfig tunes the engine.
type ConversationConfig struct {
	// MaxTurns forces a search after this many user messages.
	MaxTurns int `toml:"max_turns" json:"max_turns"`
	// ReadyThreshold is the profile confidence that ends gathering.
	ReadyThreshold float64 `toml:"ready_threshold" json:"ready_threshold"`
	// HistoryWindow is how many recent messages reach the collaborator.
	HistoryWindow int `toml:"history_window" json:"history_window"`
	// TopN is how many recommendations to surface.
	TopN int `toml:"top_n" json:"top_n"`
}

// LLMConfig selects the language collaborator.
type LLMConfig struct {
	// Provider is "auto", "gemini", or "rules". Auto prefers Gemini
	// when GEMINI_API_KEY is set.
	Provider string `toml:"provider" json:"provider"`
	// GeminiModel names the model for the Gemini collaborator.
	GeminiModel string `toml:"gemini_model" json:"gemini_model"`
}

// SearchConfig tunes the search client stack.
type SearchConfig struct {
	// Backend is "demo" or "elasticsearch".
	Backend       string   `toml:"backend" json:"backend"`
	ESAddresses   []string `toml:"es_addresses" json:"es_addresses"`
	ESIndex       string   `toml:"es_index" json:"es_index"`
	HitsPerPage   int      `toml:"hits_per_page" json:"hits_per_page"`
	CacheTTLSecs  int      `toml:"cache_ttl_secs" json:"cache_ttl_secs"`
	MaxRetries    int      `toml:"max_retries" json:"max_retries"`
	RetryDelayMS  int      `toml:"retry_delay_ms" json:"retry_delay_ms"`
	RatePerSecond float64  `toml:"rate_per_second" json:"rate_per_second"`
	// DemoFallback serves built-in products when the backend fails.
	DemoFallback bool `toml:"demo_fallback" json:"demo_fallback"`
}

// CatalogConfig controls the demo catalog source.
type CatalogConfig struct {
	// Path is an optional JSON catalog file; empty keeps the built-in
	// products.
	Path string `toml:"path" json:"path"`
	// Watch reloads the file on change.
	Watch bool `toml:"watch" json:"watch"`
}

// StorageConfig controls session persistence.
type StorageConfig struct {
	// Dir holds the SQLite database. Empty disables persistence.
	Dir string `toml:"dir" json:"dir"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Conversation: ConversationConfig{
			MaxTurns:       15,
			ReadyThreshold: 0.8,
			HistoryWindow:  10,
			TopN:           2,
		},
		LLM: LLMConfig{
			Provider:    "auto",
			GeminiModel: "gemini-2.0-flash",
		},
		Search: SearchConfig{
			Backend:       "demo",
			ESAddresses:   []string{"http://localhost:9200"},
			ESIndex:       "products",
			HitsPerPage:   5,
			CacheTTLSecs:  300,
			MaxRetries:    3,
			RetryDelayMS:  1000,
			RatePerSecond: 0,
			DemoFallback:  true,
		},
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".asesor")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".asesor", "config.toml")
}

// Load reads the configuration. A missing file is not an error; defaults
// apply. Environment overrides run after the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps a few deployment knobs onto the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASESOR_ES_ADDR"); v != "" {
		cfg.Search.Backend = "elasticsearch"
		cfg.Search.ESAddresses = []string{v}
	}
	if v := os.Getenv("ASESOR_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ASESOR_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("ASESOR_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
}

// Validate rejects configurations the wiring cannot honor.
func (c *Config) Validate() error {
	if c.Conversation.MaxTurns <= 0 {
		return errors.New("config: conversation.max_turns must be positive")
	}
	if c.Conversation.ReadyThreshold <= 0 || c.Conversation.ReadyThreshold > 1 {
		return errors.New("config: conversation.ready_threshold must be in (0, 1]")
	}
	switch c.LLM.Provider {
	case "auto", "gemini", "rules":
	default:
		return fmt.Errorf("config: unknown llm.provider %q", c.LLM.Provider)
	}
	switch c.Search.Backend {
	case "demo", "elasticsearch":
	default:
		return fmt.Errorf("config: unknown search.backend %q", c.Search.Backend)
	}
	if c.Search.Backend == "elasticsearch" && len(c.Search.ESAddresses) == 0 {
		return errors.New("config: search.es_addresses required for elasticsearch backend")
	}
	return nil
}

// CacheTTL converts the TTL setting to a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSecs) * time.Second
}

// RetryDelay converts the retry delay setting to a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Search.RetryDelayMS) * time.Millisecond
}
