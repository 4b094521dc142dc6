// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"log"
	"os"
	"time"

	genai "google.golang.org/genai"

	"asesor/internal/profile"
)

// ============================================================================
// GEMINI COLLABORATOR
// ============================================================================

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const (
	geminiMaxAttempts = 3
	geminiBaseDelay   = 300 * time.Millisecond
)

// Gemini asks the Gemini API to interpret the message. Any failure, from
// transport errors to unparseable replies, degrades to the rule-based
// extractor instead of surfacing to the conversation.
type Gemini struct {
	cli      *genai.Client
	model    string
	fallback *Rules
}

// NewGemini constructs the Gemini collaborator. Requires GEMINI_API_KEY
// in the environment; the genai client reads it itself.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return nil, ErrNoAPIKey
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{cli: cli, model: model, fallback: NewRules()}, nil
}

// Name identifies the collaborator for logs.
func (g *Gemini) Name() string { return "gemini:" + g.model }

// Process sends the prompt and decodes the JSON reply, retrying with
// exponential backoff before degrading to rules.
func (g *Gemini) Process(ctx context.Context, message string, prof *profile.Profile, history []Turn) (*Response, error) {
	full := buildPrompt(message, prof, history)

	var lastErr error
	for attempt := 0; attempt < geminiMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(geminiBaseDelay * time.Duration(1<<(attempt-1))):
			}
		}

		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
			len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrInvalidJSON
			continue
		}

		parsed, err := parseResponse(resp.Candidates[0].Content.Parts[0].Text)
		if err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}

	log.Printf("llm: gemini failed after %d attempts, degrading to rules: %v", geminiMaxAttempts, lastErr)
	return g.fallback.Process(ctx, message, prof, history)
}
