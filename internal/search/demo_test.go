// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"testing"

	"asesor/internal/catalog"
)

func TestDemoSearchFiltersAndSorts(t *testing.T) {
	d := NewDemo(nil)

	// Demo catalog: HP 2499000 / 1.69kg / 8h, ASUS 1999000 / 1.4kg / 10h,
	// Lenovo 1799000 / 1.7kg / 7.5h.
	res, err := d.Search(context.Background(), "", "price_sale<2100000 AND in_stock:true", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}
	if res.Hits[0].Brand != "LENOVO" || res.Hits[1].Brand != "ASUS" {
		t.Errorf("hits not price-ascending: %s, %s", res.Hits[0].Brand, res.Hits[1].Brand)
	}
	if res.Source != "demo" {
		t.Errorf("Source = %q, want demo", res.Source)
	}
}

func TestDemoSearchWeightAndBattery(t *testing.T) {
	d := NewDemo(nil)

	res, err := d.Search(context.Background(), "", "weight_kg<1.5 AND battery_hours>9", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].Brand != "ASUS" {
		t.Errorf("hits = %+v, want only the ASUS", res.Hits)
	}
}

func TestDemoSearchTextQuery(t *testing.T) {
	d := NewDemo(nil)

	res, err := d.Search(context.Background(), "lenovo", "", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].Brand != "LENOVO" {
		t.Errorf("hits = %+v, want only the Lenovo", res.Hits)
	}
}

func TestDemoSearchPagination(t *testing.T) {
	store := catalog.NewStore()
	d := NewDemo(store)

	res, err := d.Search(context.Background(), "", "", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 2 {
		t.Errorf("len(Hits) = %d, want 2", len(res.Hits))
	}
	if res.Total != store.Len() {
		t.Errorf("Total = %d, want %d", res.Total, store.Len())
	}
}

func TestDemoSearchOutOfStockExcluded(t *testing.T) {
	store := catalog.NewStore()
	products := store.Products()
	products[0].InStock = false
	if err := store.Replace(products); err != nil {
		t.Fatal(err)
	}

	d := NewDemo(store)
	res, err := d.Search(context.Background(), "", "in_stock:true", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, hit := range res.Hits {
		if !hit.InStock {
			t.Errorf("out-of-stock product leaked: %s", hit.ObjectID)
		}
	}
	if len(res.Hits) != 2 {
		t.Errorf("len(Hits) = %d, want 2", len(res.Hits))
	}
}
