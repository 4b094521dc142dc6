// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asesor/internal/catalog"
)

// flakyClient fails a set number of times before succeeding.
type flakyClient struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyClient) Search(ctx context.Context, query, filters string, hitsPerPage int) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("boom")
	}
	return &Result{
		Hits:   []catalog.Product{{ObjectID: "p1", Name: "Portátil", Brand: "HP", PriceSale: 1000000, InStock: true}},
		Total:  1,
		Source: "fake",
	}, nil
}

func (f *flakyClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastConfig() CachedConfig {
	return CachedConfig{
		TTL:           time.Minute,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		AnalyticsSize: 10,
	}
}

func TestCachedServesFromCache(t *testing.T) {
	inner := &flakyClient{}
	c := NewCached(inner, nil, fastConfig())

	ctx := context.Background()
	first, err := c.Search(ctx, "portátil", "in_stock:true", 5)
	if err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if first.FromCache {
		t.Error("first result should not come from cache")
	}

	second, err := c.Search(ctx, "portátil", "in_stock:true", 5)
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if !second.FromCache {
		t.Error("second result should come from cache")
	}
	if inner.callCount() != 1 {
		t.Errorf("inner called %d times, want 1", inner.callCount())
	}
}

func TestCachedKeyIncludesFilters(t *testing.T) {
	inner := &flakyClient{}
	c := NewCached(inner, nil, fastConfig())

	ctx := context.Background()
	if _, err := c.Search(ctx, "q", "in_stock:true", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Search(ctx, "q", "price_sale<2000000", 5); err != nil {
		t.Fatal(err)
	}
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want 2 for distinct filters", inner.callCount())
	}
}

func TestCachedRetriesThenSucceeds(t *testing.T) {
	inner := &flakyClient{failures: 2}
	c := NewCached(inner, nil, fastConfig())

	res, err := c.Search(context.Background(), "q", "", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != "fake" {
		t.Errorf("Source = %q, want fake", res.Source)
	}
	if inner.callCount() != 3 {
		t.Errorf("inner called %d times, want 3", inner.callCount())
	}
}

func TestCachedFallsBackToDemo(t *testing.T) {
	inner := &flakyClient{failures: 99}
	c := NewCached(inner, NewDemo(nil), fastConfig())

	res, err := c.Search(context.Background(), "", "in_stock:true", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != "demo-fallback" {
		t.Errorf("Source = %q, want demo-fallback", res.Source)
	}
	if len(res.Hits) == 0 {
		t.Error("fallback should return demo hits")
	}
}

func TestCachedSurfacesErrorWithoutFallback(t *testing.T) {
	inner := &flakyClient{failures: 99}
	c := NewCached(inner, nil, fastConfig())

	if _, err := c.Search(context.Background(), "", "", 5); err == nil {
		t.Error("Search should fail without a fallback")
	}
}

func TestCachedInvalidate(t *testing.T) {
	inner := &flakyClient{}
	c := NewCached(inner, nil, fastConfig())

	ctx := context.Background()
	if _, err := c.Search(ctx, "q", "", 5); err != nil {
		t.Fatal(err)
	}
	c.InvalidateCache()
	if _, err := c.Search(ctx, "q", "", 5); err != nil {
		t.Fatal(err)
	}
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want 2 after invalidation", inner.callCount())
	}
}

func TestAnalyticsSummary(t *testing.T) {
	inner := &flakyClient{}
	c := NewCached(inner, nil, fastConfig())

	ctx := context.Background()
	c.Search(ctx, "a", "", 5)
	c.Search(ctx, "a", "", 5) // cache hit
	c.Search(ctx, "b", "", 5)

	s := c.Analytics()
	if s.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", s.TotalSearches)
	}
	if s.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", s.CacheHits)
	}
}

func TestAnalyticsRingWraps(t *testing.T) {
	r := newAnalyticsRing(3)
	for i := 0; i < 5; i++ {
		r.add(SearchLog{Hits: i})
	}
	s := r.summary()
	if s.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3 after wrap", s.TotalSearches)
	}
}
