// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search finds candidate products for a requirements profile.
//
// The Client interface takes a free-text query plus a conjunctive filter
// expression and returns catalog products. Two backends implement it: an
// in-memory demo backend over the catalog store, and an Elasticsearch
// backend. Production use wraps either in Cached, which adds a TTL cache,
// bounded retries, rate limiting, a demo-data fallback, and an in-memory
// analytics ring.
//
// Filter expressions are strings like
//
//	price_sale<2500000 AND weight_kg<1.5 AND battery_hours>8 AND in_stock:true
//
// built from a profile with FromProfile and parsed back by the backends.
package search
