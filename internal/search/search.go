// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"errors"

	"asesor/internal/catalog"
)

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrBackendUnavailable wraps transport-level failures.
	ErrBackendUnavailable = errors.New("search: backend unavailable")

	// ErrBadResponse means the backend answered with something that
	// could not be decoded.
	ErrBadResponse = errors.New("search: bad backend response")
)

// ============================================================================
// Types
// ============================================================================

// DefaultHitsPerPage bounds result sets when the caller does not say.
const DefaultHitsPerPage = 5

// Result is one search outcome.
type Result struct {
	Hits      []catalog.Product `json:"hits"`
	Total     int               `json:"total"`
	Source    string            `json:"source"`
	FromCache bool              `json:"from_cache,omitempty"`
}

// Client runs product searches. Implementations must be safe for
// concurrent use.
type Client interface {
	// Search finds products matching the free-text query and the
	// conjunctive filter expression. An empty query matches everything
	// the filters allow.
	Search(ctx context.Context, query, filters string, hitsPerPage int) (*Result, error)
}
