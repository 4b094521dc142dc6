// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile accumulates laptop purchase requirements across a
// conversation.
//
// A Profile starts empty and absorbs partial extractions turn by turn
// through Merge. It reports a weighted completeness score through
// Confidence, lists the critical fields still unknown through
// MissingCriticalFields, and decides search readiness through
// ReadyForSearch.
//
// # Scoring
//
// Confidence weighs five groups of information:
//
//   - use case: 0.25
//   - complete budget (positive maximum): 0.25
//   - priorities: 0.05 each, capped at 0.15
//   - hard constraints: 0.05 per filled field (RAM, weight, battery, OS)
//   - usage context: 0.15 for both location and frequency, 0.075 for one
//
// The score is deterministic for a given profile state and Merge with
// the same fragment is idempotent.
//
// # Usage
//
//	p := profile.New()
//	p.Merge(map[string]any{"use_case": "gaming", "budget_max": 3000000})
//	if p.ReadyForSearch(0.8) {
//		// hand off to search
//	}
package profile
