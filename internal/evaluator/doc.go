// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package evaluator ranks candidate products against a requirements
// profile.
//
// Each product gets a weighted score out of 100 from five factors: price
// fit (25%), RAM adequacy (20%), weight (15%), battery life (15%), and
// brand reliability (10%). Minimum RAM and battery expectations come from
// a fixed per-use-case baseline table; the profile contributes only the
// budget and the weight ceiling. The
// result carries a truncated match percentage, notable highlights, and a
// deterministic Spanish explanation, ranked descending with original
// order preserved among ties.
package evaluator
