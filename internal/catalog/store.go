// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ============================================================================
// Store
// ============================================================================

// Store holds the current product catalog behind a read lock so the demo
// search backend and a file watcher can share it.
type Store struct {
	mu       sync.RWMutex
	products []Product
}

// NewStore returns a store seeded with the built-in demo catalog.
func NewStore() *Store {
	return &Store{products: DemoProducts()}
}

// Products returns a copy of the current catalog.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Replace swaps in a new catalog. Empty catalogs are rejected so a
// half-written file cannot wipe the store.
func (s *Store) Replace(products []Product) error {
	if len(products) == 0 {
		return fmt.Errorf("catalog: refusing to replace with empty product list")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make([]Product, len(products))
	copy(s.products, products)
	return nil
}

// Len returns the current catalog size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ============================================================================
// File loading
// ============================================================================

// LoadFile reads a JSON catalog file. The file holds either a bare array
// of products or an object with a "products" array.
func LoadFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err == nil {
		return products, nil
	}

	var wrapped struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return wrapped.Products, nil
}

// LoadInto loads a catalog file and replaces the store contents.
func (s *Store) LoadInto(path string) error {
	products, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(products)
}
