// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm provides the language collaborators that interpret user
// messages during requirement gathering.
//
// A Collaborator takes the raw user message, the current requirements
// profile, and recent conversation history, and returns a natural reply
// plus a structured extraction to merge into the profile. Two
// implementations exist:
//
//   - Gemini: calls the Gemini API requesting a JSON response, with
//     bounded retries. When the API fails it degrades to the rule-based
//     extractor, so a conversation never dead-ends on an outage.
//   - Rules: a deterministic Spanish keyword and regex extractor with no
//     external calls. It is the collaborator of last resort and the demo
//     default when no API key is configured.
//
// The conversation engine treats the collaborator as opaque; which one
// runs is decided once at startup.
package llm
