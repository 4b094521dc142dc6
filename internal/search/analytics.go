// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"sync"
	"time"
)

// ============================================================================
// SEARCH ANALYTICS
// ============================================================================

// SearchLog is one recorded search.
type SearchLog struct {
	Query    string        `json:"query"`
	Filters  string        `json:"filters"`
	Hits     int           `json:"hits"`
	Source   string        `json:"source"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// AnalyticsSummary aggregates the retained search log.
type AnalyticsSummary struct {
	TotalSearches int           `json:"total_searches"`
	CacheHits     int           `json:"cache_hits"`
	ZeroHits      int           `json:"zero_hits"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// analyticsRing keeps the last N searches. Older entries fall off.
type analyticsRing struct {
	mu      sync.Mutex
	entries []SearchLog
	next    int
	full    bool
}

func newAnalyticsRing(size int) *analyticsRing {
	return &analyticsRing{entries: make([]SearchLog, size)}
}

func (r *analyticsRing) add(entry SearchLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = entry
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

func (r *analyticsRing) summary() AnalyticsSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.entries)
	}

	var s AnalyticsSummary
	var total time.Duration
	for i := 0; i < count; i++ {
		entry := r.entries[i]
		s.TotalSearches++
		if entry.Cached {
			s.CacheHits++
		}
		if entry.Hits == 0 {
			s.ZeroHits++
		}
		total += entry.Duration
	}
	if s.TotalSearches > 0 {
		s.AvgDuration = total / time.Duration(s.TotalSearches)
	}
	return s
}
