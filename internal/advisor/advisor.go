// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package advisor wires the conversation engine to the search and
// evaluation collaborators.
//
// The engine deliberately does no searching of its own; it marks the turn
// with the SEARCHING state and stops. The advisor watches for that
// marker, runs the search client with filters derived from the profile,
// injects the results, ranks them, and folds everything into a single
// turn result for the caller. It also persists the session after every
// turn when a store is attached.
package advisor

import (
	"context"
	"fmt"
	"log"

	"asesor/internal/catalog"
	"asesor/internal/engine"
	"asesor/internal/evaluator"
	"asesor/internal/profile"
	"asesor/internal/search"
)

// ============================================================================
// ADVISOR
// ============================================================================

// Store is the slice of session persistence the advisor needs.
type Store interface {
	Save(conv *engine.Conversation) error
}

// Config tunes the orchestration.
type Config struct {
	// TopN is how many recommendations to surface.
	TopN int

	// HitsPerPage bounds each search.
	HitsPerPage int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TopN:        evaluator.DefaultTopN,
		HitsPerPage: search.DefaultHitsPerPage,
	}
}

// Advisor runs complete advisory turns. Like the engine it serves one
// conversation at a time.
type Advisor struct {
	engine *engine.Engine
	search search.Client
	store  Store
	cfg    Config
}

// New builds an advisor. The store may be nil for ephemeral sessions.
func New(eng *engine.Engine, searchClient search.Client, store Store, cfg Config) *Advisor {
	def := DefaultConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.HitsPerPage <= 0 {
		cfg.HitsPerPage = def.HitsPerPage
	}
	return &Advisor{engine: eng, search: searchClient, store: store, cfg: cfg}
}

// WelcomeMessage proxies the engine greeting.
func (a *Advisor) WelcomeMessage() string {
	return a.engine.WelcomeMessage()
}

// CurrentState proxies the engine state name.
func (a *Advisor) CurrentState() string {
	return a.engine.CurrentState()
}

// Profile proxies the requirements profile.
func (a *Advisor) Profile() *profile.Profile {
	return a.engine.Profile()
}

// Engine exposes the underlying engine for direct result injection.
func (a *Advisor) Engine() *engine.Engine {
	return a.engine
}

// Reset starts the conversation over.
func (a *Advisor) Reset() {
	a.engine.Reset()
	a.persist()
}

// Process runs one full turn. When the engine hands off with SEARCHING,
// the search and evaluation happen here and the combined outcome comes
// back as one result.
func (a *Advisor) Process(ctx context.Context, text string) (*engine.TurnResult, error) {
	res, err := a.engine.ProcessUserMessage(ctx, text)
	if err != nil {
		return nil, err
	}

	if res.State == "SEARCHING" {
		res = a.completeSearch(ctx, res)
	}

	a.persist()
	return res, nil
}

// completeSearch executes the handoff: search, inject, evaluate, inject.
// Search failures degrade to an empty result set rather than killing the
// turn; the engine then apologizes and stays conversational.
func (a *Advisor) completeSearch(ctx context.Context, handoff *engine.TurnResult) *engine.TurnResult {
	prof := a.engine.Profile()
	filters := search.FromProfile(prof).Expression()

	// Constraints live in the filters; the query stays a broad category
	// term so text matching never starves the result set.
	query := "portátil"

	var recommendation *engine.TurnResult
	result, err := a.search.Search(ctx, query, filters, a.cfg.HitsPerPage)
	if err != nil {
		log.Printf("advisor: search failed: %v", err)
		recommendation = a.engine.SetSearchResults(nil)
	} else {
		recommendation = a.engine.SetSearchResults(result.Hits)
		if len(result.Hits) > 0 {
			ranked := evaluator.New(prof).Evaluate(result.Hits, a.cfg.TopN)
			injected := a.engine.SetRecommendations(ranked)
			recommendation.Recommendations = injected.Recommendations
		}
	}

	combined := *recommendation
	combined.Reply = handoff.Reply + "\n\n" + recommendation.Reply
	return &combined
}

// InjectResults lets an external caller (the HTTP API) supply search
// results directly, mirroring the engine injection points but with
// ranking applied.
func (a *Advisor) InjectResults(products []catalog.Product) *engine.TurnResult {
	res := a.engine.SetSearchResults(products)
	if len(products) > 0 {
		ranked := evaluator.New(a.engine.Profile()).Evaluate(products, a.cfg.TopN)
		injected := a.engine.SetRecommendations(ranked)
		res.Recommendations = injected.Recommendations
	}
	a.persist()
	return res
}

func (a *Advisor) persist() {
	if a.store == nil {
		return
	}
	if err := a.store.Save(a.engine.Conversation()); err != nil {
		log.Printf("advisor: persist session: %v", err)
	}
}

// Analytics exposes search analytics when the client records them.
func (a *Advisor) Analytics() (search.AnalyticsSummary, error) {
	if cached, ok := a.search.(*search.Cached); ok {
		return cached.Analytics(), nil
	}
	return search.AnalyticsSummary{}, fmt.Errorf("advisor: search client records no analytics")
}
