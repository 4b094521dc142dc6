// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"

	"asesor/internal/profile"
)

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrNoAPIKey means the Gemini collaborator cannot be constructed.
	ErrNoAPIKey = errors.New("llm: GEMINI_API_KEY not set")

	// ErrInvalidJSON means the model reply carried no usable JSON.
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
)

// ============================================================================
// Types
// ============================================================================

// Turn is one prior exchange handed to the collaborator as context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is what a collaborator returns for one user message.
type Response struct {
	// Reply is the natural-language answer to show the user.
	Reply string `json:"reply"`

	// Extracted holds profile fragments keyed by the extraction schema
	// (use_case, budget_max, priorities, min_ram_gb, ...). May be empty.
	Extracted map[string]any `json:"extracted,omitempty"`

	// Confidence is the collaborator's view of profile completeness
	// after merging Extracted.
	Confidence float64 `json:"confidence"`

	// ReadyToSearch signals that gathering can stop.
	ReadyToSearch bool `json:"ready_to_search"`
}

// Collaborator interprets one user message in the context of the profile
// built so far.
type Collaborator interface {
	// Process returns the reply and extraction for a user message. The
	// profile is read-only context; merging Extracted is the caller's
	// job.
	Process(ctx context.Context, message string, prof *profile.Profile, history []Turn) (*Response, error)

	// Name identifies the collaborator for logs.
	Name() string
}
