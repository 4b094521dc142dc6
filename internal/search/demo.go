// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"sort"
	"strings"

	"asesor/internal/catalog"
)

// ============================================================================
// DEMO BACKEND
// ============================================================================

// Demo searches the in-memory catalog store. It exists so the whole
// system runs with no external services and doubles as the fallback when
// a real backend is down.
type Demo struct {
	store *catalog.Store
}

// NewDemo returns a demo backend over the given store. A nil store gets a
// fresh one seeded with the built-in catalog.
func NewDemo(store *catalog.Store) *Demo {
	if store == nil {
		store = catalog.NewStore()
	}
	return &Demo{store: store}
}

// Search applies the filter expression, then a substring match on the
// product name, and returns hits sorted by ascending price.
func (d *Demo) Search(ctx context.Context, query, filters string, hitsPerPage int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hitsPerPage <= 0 {
		hitsPerPage = DefaultHitsPerPage
	}

	f := ParseExpression(filters)
	terms := strings.Fields(strings.ToLower(query))

	var hits []catalog.Product
	for _, p := range d.store.Products() {
		if !matchesFilter(p, f) {
			continue
		}
		if !matchesQuery(p, terms) {
			continue
		}
		hits = append(hits, p)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].PriceSale < hits[j].PriceSale
	})

	total := len(hits)
	if len(hits) > hitsPerPage {
		hits = hits[:hitsPerPage]
	}
	return &Result{Hits: hits, Total: total, Source: "demo"}, nil
}

func matchesFilter(p catalog.Product, f Filter) bool {
	if f.PriceMax > 0 && p.PriceSale >= f.PriceMax {
		return false
	}
	if f.WeightMax > 0 && p.WeightKg >= f.WeightMax {
		return false
	}
	if f.BatteryMin > 0 && p.BatteryHours <= f.BatteryMin {
		return false
	}
	if f.InStockOnly && !p.InStock {
		return false
	}
	return true
}

// matchesQuery requires every query term to appear in the product name,
// brand, or processor. Generic storefront words are not special-cased;
// "portátil" appears in every demo product name anyway.
func matchesQuery(p catalog.Product, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(p.Name + " " + p.Brand + " " + p.Processor)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
