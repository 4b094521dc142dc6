// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives the advisory conversation through its states.
//
// The lifecycle is WELCOME → GATHERING_INFO → CONFIRMING → SEARCHING →
// RECOMMENDING → FOLLOWUP, where FOLLOWUP either ends the conversation or
// loops back to GATHERING_INFO for refinement. The state set is closed;
// dispatching an unknown state is a programming error and fails loudly.
//
// The engine holds the conversation log and requirements profile but does
// no I/O of its own: interpreting messages is delegated to an llm
// collaborator, and searching is the caller's job. A turn that lands in
// SEARCHING is a handoff marker; the caller runs the search and feeds the
// outcome back through SetSearchResults and SetRecommendations.
package engine
