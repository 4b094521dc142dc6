// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"regexp"
	"strconv"
	"strings"

	"asesor/internal/profile"
)

// ============================================================================
// FILTER EXPRESSIONS
// ============================================================================

// Filter is the structured form of a conjunctive filter expression.
// Zero-valued fields are absent from the expression.
type Filter struct {
	PriceMax    int
	WeightMax   float64
	BatteryMin  float64
	InStockOnly bool
}

// budgetHeadroom widens the price ceiling so products slightly over
// budget still surface; the evaluator penalizes them instead.
const budgetHeadroom = 1.1

// FromProfile derives search filters from a profile. Only in-stock
// products are ever requested.
func FromProfile(p *profile.Profile) Filter {
	f := Filter{InStockOnly: true}
	if p == nil {
		return f
	}
	if p.Budget.Max > 0 {
		f.PriceMax = int(float64(p.Budget.Max) * budgetHeadroom)
	}
	if p.MustHaves.MaxWeightKg > 0 {
		f.WeightMax = p.MustHaves.MaxWeightKg
	}
	if p.MustHaves.MinBatteryHours > 0 {
		f.BatteryMin = p.MustHaves.MinBatteryHours
	}
	return f
}

// Expression renders the filter as the conjunctive string backends parse.
func (f Filter) Expression() string {
	var parts []string
	if f.PriceMax > 0 {
		parts = append(parts, "price_sale<"+strconv.Itoa(f.PriceMax))
	}
	if f.WeightMax > 0 {
		parts = append(parts, "weight_kg<"+strconv.FormatFloat(f.WeightMax, 'f', -1, 64))
	}
	if f.BatteryMin > 0 {
		parts = append(parts, "battery_hours>"+strconv.FormatFloat(f.BatteryMin, 'f', -1, 64))
	}
	if f.InStockOnly {
		parts = append(parts, "in_stock:true")
	}
	return strings.Join(parts, " AND ")
}

var (
	pricePattern   = regexp.MustCompile(`price_sale\s*<\s*(\d+)`)
	weightPattern  = regexp.MustCompile(`weight_kg\s*<\s*(\d+\.?\d*)`)
	batteryPattern = regexp.MustCompile(`battery_hours\s*>\s*(\d+\.?\d*)`)
	stockPattern   = regexp.MustCompile(`in_stock\s*:\s*true`)
)

// ParseExpression recovers a Filter from an expression string. Unknown
// clauses are ignored.
func ParseExpression(expr string) Filter {
	var f Filter
	if m := pricePattern.FindStringSubmatch(expr); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.PriceMax = n
		}
	}
	if m := weightPattern.FindStringSubmatch(expr); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.WeightMax = v
		}
	}
	if m := batteryPattern.FindStringSubmatch(expr); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.BatteryMin = v
		}
	}
	f.InStockOnly = stockPattern.MatchString(expr)
	return f
}
