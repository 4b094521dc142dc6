// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

// ============================================================================
// Product
// ============================================================================

// Product is a catalog record. Field tags match the search index schema,
// so records decode directly from search hits and from catalog files.
type Product struct {
	ObjectID       string   `json:"objectID"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	PriceSale      int      `json:"price_sale"`
	PriceList      int      `json:"price_list,omitempty"`
	RAM            string   `json:"ram"`
	Storage        string   `json:"storage,omitempty"`
	Processor      string   `json:"processor,omitempty"`
	ProcessorBrand string   `json:"processor_brand,omitempty"`
	WeightKg       float64  `json:"weight_kg"`
	BatteryHours   float64  `json:"battery_hours"`
	ScreenSize     string   `json:"screen_size,omitempty"`
	OS             string   `json:"os,omitempty"`
	InStock        bool     `json:"in_stock"`
	Stock          int      `json:"stock,omitempty"`
	KeyFeatures    []string `json:"key_features,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// DemoProducts returns the built-in catalog used when no search backend or
// catalog file is configured.
func DemoProducts() []Product {
	return []Product{
		{
			ObjectID:       "demo-001",
			Name:           "Portátil HP 15.6 pulgadas Intel Core i5",
			Brand:          "HP",
			PriceSale:      2499000,
			PriceList:      2799000,
			RAM:            "16GB",
			Storage:        "512GB SSD",
			Processor:      "Intel Core i5-1235U",
			ProcessorBrand: "Intel",
			WeightKg:       1.69,
			BatteryHours:   8.0,
			ScreenSize:     "15.6 pulgadas",
			OS:             "Windows 11",
			InStock:        true,
			Stock:          12,
			KeyFeatures:    []string{"Teclado retroiluminado", "Lector de huella", "WiFi 6"},
			URL:            "https://www.alkosto.com/portatil-hp-15-i5",
		},
		{
			ObjectID:       "demo-002",
			Name:           "Portátil ASUS VivoBook 14 pulgadas AMD Ryzen 5",
			Brand:          "ASUS",
			PriceSale:      1999000,
			PriceList:      2299000,
			RAM:            "8GB",
			Storage:        "256GB SSD",
			Processor:      "AMD Ryzen 5 7520U",
			ProcessorBrand: "AMD",
			WeightKg:       1.4,
			BatteryHours:   10.0,
			ScreenSize:     "14 pulgadas",
			OS:             "Windows 11",
			InStock:        true,
			Stock:          8,
			KeyFeatures:    []string{"Ultraliviano", "Carga rápida", "Pantalla antirreflejo"},
			URL:            "https://www.alkosto.com/portatil-asus-vivobook-14",
		},
		{
			ObjectID:       "demo-003",
			Name:           "Portátil Lenovo IdeaPad 3 15.6 pulgadas Intel Core i3",
			Brand:          "LENOVO",
			PriceSale:      1799000,
			PriceList:      1999000,
			RAM:            "8GB",
			Storage:        "256GB SSD",
			Processor:      "Intel Core i3-1215U",
			ProcessorBrand: "Intel",
			WeightKg:       1.7,
			BatteryHours:   7.5,
			ScreenSize:     "15.6 pulgadas",
			OS:             "Windows 11",
			InStock:        true,
			Stock:          15,
			KeyFeatures:    []string{"Cámara con obturador físico", "Dolby Audio"},
			URL:            "https://www.alkosto.com/portatil-lenovo-ideapad-3",
		},
	}
}
