// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists advisory sessions in SQLite.
//
// Each session row keeps the state, turn count, and a JSON snapshot of
// the requirements profile; messages live in their own table so
// transcripts survive process restarts intact. The store offers load,
// list, delete, and a markdown transcript export.
package storage
