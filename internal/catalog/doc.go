// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog defines the product record shape and provides the
// in-memory product store used by the demo search backend.
//
// The store ships with a small built-in catalog and can optionally load a
// JSON catalog file. When a file is configured, a Watcher reloads it on
// change so the running process picks up catalog edits without a restart.
package catalog
