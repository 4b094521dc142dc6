// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the advisor stack from configuration. Both entry
// points (the chat TUI and the HTTP server) build through here so they
// stay behaviorally identical.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"asesor/internal/advisor"
	"asesor/internal/catalog"
	"asesor/internal/config"
	"asesor/internal/engine"
	"asesor/internal/llm"
	"asesor/internal/search"
	"asesor/internal/storage"
)

// App is a fully wired advisor plus the resources behind it.
type App struct {
	Advisor *advisor.Advisor
	Store   *storage.Store
	Catalog *catalog.Store

	search  search.Client
	watcher *catalog.Watcher
}

// NewAdvisor builds another advisor sharing this app's backends, for
// callers that run one conversation per session.
func (a *App) NewAdvisor(cfg *config.Config) *advisor.Advisor {
	eng := engine.New(a.collaborator(cfg), engine.Config{
		MaxTurns:       cfg.Conversation.MaxTurns,
		ReadyThreshold: cfg.Conversation.ReadyThreshold,
		HistoryWindow:  cfg.Conversation.HistoryWindow,
	})
	var store advisor.Store
	if a.Store != nil {
		store = a.Store
	}
	return advisor.New(eng, a.search, store, advisor.Config{
		TopN:        cfg.Conversation.TopN,
		HitsPerPage: cfg.Search.HitsPerPage,
	})
}

func (a *App) collaborator(cfg *config.Config) llm.Collaborator {
	return buildCollaborator(context.Background(), cfg)
}

// SearchClient exposes the shared search client.
func (a *App) SearchClient() search.Client { return a.search }

// Close releases the watcher and the session store.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// Build wires catalog, search, collaborator, storage, and the advisor
// according to cfg.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// Catalog store, optionally fed from a watched JSON file.
	a.Catalog = catalog.NewStore()
	if cfg.Catalog.Path != "" {
		if cfg.Catalog.Watch {
			w, err := catalog.NewWatcher(a.Catalog, cfg.Catalog.Path, 500*time.Millisecond)
			if err != nil {
				return nil, fmt.Errorf("app: catalog watcher: %w", err)
			}
			if err := w.Watch(); err != nil {
				return nil, fmt.Errorf("app: catalog watch: %w", err)
			}
			a.watcher = w
		} else if err := a.Catalog.LoadInto(cfg.Catalog.Path); err != nil {
			return nil, fmt.Errorf("app: catalog: %w", err)
		}
	}

	// Search stack: backend, then the cached wrapper.
	demo := search.NewDemo(a.Catalog)
	var backend search.Client = demo
	if cfg.Search.Backend == "elasticsearch" {
		es, err := search.NewES(cfg.Search.ESAddresses, cfg.Search.ESIndex)
		if err != nil {
			return nil, fmt.Errorf("app: elasticsearch: %w", err)
		}
		backend = es
	}
	var fallback *search.Demo
	if cfg.Search.DemoFallback {
		fallback = demo
	}
	a.search = search.NewCached(backend, fallback, search.CachedConfig{
		TTL:               cfg.CacheTTL(),
		MaxRetries:        cfg.Search.MaxRetries,
		RetryDelay:        cfg.RetryDelay(),
		RequestsPerSecond: cfg.Search.RatePerSecond,
		AnalyticsSize:     1000,
	})

	// Session store.
	if cfg.Storage.Dir != "" {
		store, err := storage.Open(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("app: storage: %w", err)
		}
		a.Store = store
	}

	// Engine and advisor.
	eng := engine.New(buildCollaborator(ctx, cfg), engine.Config{
		MaxTurns:       cfg.Conversation.MaxTurns,
		ReadyThreshold: cfg.Conversation.ReadyThreshold,
		HistoryWindow:  cfg.Conversation.HistoryWindow,
	})
	var store advisor.Store
	if a.Store != nil {
		store = a.Store
	}
	a.Advisor = advisor.New(eng, a.search, store, advisor.Config{
		TopN:        cfg.Conversation.TopN,
		HitsPerPage: cfg.Search.HitsPerPage,
	})
	return a, nil
}

// buildCollaborator picks the language collaborator. "auto" prefers
// Gemini when a key is present and quietly uses rules otherwise.
func buildCollaborator(ctx context.Context, cfg *config.Config) llm.Collaborator {
	switch cfg.LLM.Provider {
	case "rules":
		return llm.NewRules()
	case "gemini", "auto":
		gem, err := llm.NewGemini(ctx, cfg.LLM.GeminiModel)
		if err != nil {
			if cfg.LLM.Provider == "gemini" {
				log.Printf("app: gemini unavailable (%v), using rules", err)
			}
			return llm.NewRules()
		}
		return gem
	default:
		return llm.NewRules()
	}
}
