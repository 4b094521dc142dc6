// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ============================================================================
// CACHED CLIENT
// ============================================================================

// CachedConfig tunes the production wrapper.
type CachedConfig struct {
	// TTL is how long a cached result stays fresh.
	TTL time.Duration

	// MaxRetries is the number of attempts against the inner backend.
	MaxRetries int

	// RetryDelay is the base delay between attempts, grown linearly.
	RetryDelay time.Duration

	// RequestsPerSecond throttles calls to the inner backend. Zero
	// disables throttling.
	RequestsPerSecond float64

	// AnalyticsSize bounds the in-memory search log.
	AnalyticsSize int
}

// DefaultCachedConfig mirrors the production defaults: five-minute cache,
// three attempts one second apart, and a thousand-entry analytics ring.
func DefaultCachedConfig() CachedConfig {
	return CachedConfig{
		TTL:           5 * time.Minute,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		AnalyticsSize: 1000,
	}
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// Cached wraps a backend with a TTL cache, bounded retries, optional rate
// limiting, and a demo fallback. Analytics are recorded for every search,
// cached or not.
type Cached struct {
	inner    Client
	fallback *Demo
	cfg      CachedConfig
	limiter  *rate.Limiter

	mu        sync.Mutex
	cache     map[string]cacheEntry
	analytics *analyticsRing
}

// NewCached wraps inner. A nil fallback disables demo degradation; errors
// then surface to the caller.
func NewCached(inner Client, fallback *Demo, cfg CachedConfig) *Cached {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCachedConfig().TTL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultCachedConfig().MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultCachedConfig().RetryDelay
	}
	if cfg.AnalyticsSize <= 0 {
		cfg.AnalyticsSize = DefaultCachedConfig().AnalyticsSize
	}

	c := &Cached{
		inner:     inner,
		fallback:  fallback,
		cfg:       cfg,
		cache:     make(map[string]cacheEntry),
		analytics: newAnalyticsRing(cfg.AnalyticsSize),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Search serves from cache when fresh, otherwise retries the inner
// backend and falls back to demo data as a last resort.
func (c *Cached) Search(ctx context.Context, query, filters string, hitsPerPage int) (*Result, error) {
	start := time.Now()
	key := query + "|" + filters + "|" + strconv.Itoa(hitsPerPage)

	if cached, ok := c.lookup(key); ok {
		cached.FromCache = true
		c.record(query, filters, len(cached.Hits), cached.Source, true, time.Since(start))
		return &cached, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		result, err := c.inner.Search(ctx, query, filters, hitsPerPage)
		if err == nil {
			c.store(key, *result)
			c.record(query, filters, len(result.Hits), result.Source, false, time.Since(start))
			return result, nil
		}
		lastErr = err

		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
	}

	if c.fallback != nil {
		log.Printf("search: backend failed after %d attempts, serving demo data: %v", c.cfg.MaxRetries, lastErr)
		result, err := c.fallback.Search(ctx, query, filters, hitsPerPage)
		if err != nil {
			return nil, err
		}
		result.Source = "demo-fallback"
		c.record(query, filters, len(result.Hits), result.Source, false, time.Since(start))
		return result, nil
	}
	return nil, lastErr
}

func (c *Cached) lookup(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.cache, key)
		return Result{}, false
	}
	return entry.result, true
}

func (c *Cached) store(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{result: result, expires: time.Now().Add(c.cfg.TTL)}
}

// InvalidateCache drops every cached result.
func (c *Cached) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func (c *Cached) record(query, filters string, hits int, source string, cached bool, elapsed time.Duration) {
	c.analytics.add(SearchLog{
		Query:    query,
		Filters:  filters,
		Hits:     hits,
		Source:   source,
		Cached:   cached,
		Duration: elapsed,
		At:       time.Now(),
	})
}

// Analytics summarizes recent searches.
func (c *Cached) Analytics() AnalyticsSummary {
	return c.analytics.summary()
}
