// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

// ============================================================================
// CONVERSATION STATES
// ============================================================================

// State is one phase of the advisory conversation. The set is closed;
// there is no catch-all.
type State int

const (
	// StateWelcome is the initial state before any user message.
	StateWelcome State = iota

	// StateGathering collects requirements through the collaborator.
	StateGathering

	// StateConfirming plays the gathered requirements back to the user.
	StateConfirming

	// StateSearching hands off to the search collaborator.
	StateSearching

	// StateRecommending presents search results.
	StateRecommending

	// StateFollowup handles reactions to the recommendations.
	StateFollowup

	// StateEnded is terminal.
	StateEnded
)

var stateNames = map[State]string{
	StateWelcome:      "WELCOME",
	StateGathering:    "GATHERING_INFO",
	StateConfirming:   "CONFIRMING",
	StateSearching:    "SEARCHING",
	StateRecommending: "RECOMMENDING",
	StateFollowup:     "FOLLOWUP",
	StateEnded:        "ENDED",
}

// String returns the canonical state name, or "UNKNOWN" for values
// outside the set.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether the conversation is over.
func (s State) Terminal() bool {
	return s == StateEnded
}

// Valid reports whether s belongs to the closed state set.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}
