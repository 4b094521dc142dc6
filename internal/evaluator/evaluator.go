// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package evaluator

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"asesor/internal/catalog"
	"asesor/internal/profile"
)

// ============================================================================
// Constants
// ============================================================================

// Factor weights. Applied to per-factor scores in [0, 100].
const (
	weightPrice   = 0.25
	weightRAM     = 0.20
	weightWeight  = 0.15
	weightBattery = 0.15
	weightBrand   = 0.10
)

// Fallbacks used when the profile leaves a bound unset. The weight ceiling
// is effectively "no limit".
const (
	defaultBudget      = 5000000
	defaultWeightLimit = 999.0
)

// DefaultTopN is how many recommendations Evaluate returns when the caller
// does not say.
const DefaultTopN = 2

// baseline holds the per-use-case minimum expectations. The table is the
// only source for the RAM and battery minimums; the profile contributes
// the budget and the weight ceiling.
type baseline struct {
	minRAMGB        int
	minBatteryHours float64
}

var useCaseBaselines = map[string]baseline{
	profile.UseCaseGaming:   {minRAMGB: 16, minBatteryHours: 4},
	profile.UseCaseCreative: {minRAMGB: 16, minBatteryHours: 6},
	profile.UseCaseStudy:    {minRAMGB: 8, minBatteryHours: 6},
	profile.UseCaseOffice:   {minRAMGB: 8, minBatteryHours: 6},
	profile.UseCaseGeneral:  {minRAMGB: 8, minBatteryHours: 5},
}

// reliableBrands score higher on the brand factor.
var reliableBrands = map[string]bool{
	"HP":     true,
	"LENOVO": true,
	"ASUS":   true,
	"DELL":   true,
}

var ramPattern = regexp.MustCompile(`\d+`)

// ============================================================================
// Types
// ============================================================================

// ProductScore is one ranked recommendation.
type ProductScore struct {
	Product         catalog.Product `json:"product"`
	TotalScore      float64         `json:"total_score"`
	MatchPercentage int             `json:"match_percentage"`
	Explanation     string          `json:"explanation"`
	Highlights      []string        `json:"highlights,omitempty"`
}

// Evaluator scores products against one requirements profile. The bounds
// are resolved once at construction, so one evaluator serves a whole
// result set consistently.
type Evaluator struct {
	useCase         string
	budget          int
	minRAMGB        int
	maxWeightKg     float64
	minBatteryHours float64
}

// New builds an evaluator from a profile. A nil profile gets the general
// baseline with default bounds.
func New(p *profile.Profile) *Evaluator {
	e := &Evaluator{
		useCase:     profile.UseCaseGeneral,
		budget:      defaultBudget,
		maxWeightKg: defaultWeightLimit,
	}
	base := useCaseBaselines[profile.UseCaseGeneral]

	if p != nil {
		if p.UseCase != "" {
			e.useCase = p.UseCase
			if b, ok := useCaseBaselines[p.UseCase]; ok {
				base = b
			}
		}
		if p.Budget.Max > 0 {
			e.budget = p.Budget.Max
		}
		if p.MustHaves.MaxWeightKg > 0 {
			e.maxWeightKg = p.MustHaves.MaxWeightKg
		}
	}

	e.minRAMGB = base.minRAMGB
	e.minBatteryHours = base.minBatteryHours
	return e
}

// ============================================================================
// Ranking
// ============================================================================

// Evaluate scores every product and returns the top candidates in
// descending score order. Ties keep the incoming order. A non-positive
// topN falls back to DefaultTopN.
func (e *Evaluator) Evaluate(products []catalog.Product, topN int) []ProductScore {
	if topN <= 0 {
		topN = DefaultTopN
	}

	scored := make([]ProductScore, 0, len(products))
	for _, p := range products {
		scored = append(scored, e.Score(p))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// Score evaluates a single product.
func (e *Evaluator) Score(p catalog.Product) ProductScore {
	var highlights []string

	price := e.priceScore(p.PriceSale)

	ramGB := parseRAMGB(p.RAM)
	ram := e.ramScore(ramGB)
	if e.minRAMGB > 0 && ramGB >= 2*e.minRAMGB {
		highlights = append(highlights, "Excelente RAM ("+strconv.Itoa(ramGB)+"GB)")
	}

	weight := e.weightScore(p.WeightKg)
	if p.WeightKg > 0 && p.WeightKg < 1.3 && p.WeightKg <= e.maxWeightKg {
		highlights = append(highlights, "Ultraligera")
	}

	battery := e.batteryScore(p.BatteryHours)
	if p.BatteryHours > 10 {
		highlights = append(highlights, "Larga batería")
	}

	brand := brandScore(p.Brand)

	total := price*weightPrice + ram*weightRAM + weight*weightWeight +
		battery*weightBattery + brand*weightBrand

	return ProductScore{
		Product:         p,
		TotalScore:      total,
		MatchPercentage: int(total),
		Explanation:     e.explain(p, highlights),
		Highlights:      highlights,
	}
}

// ============================================================================
// Factors
// ============================================================================

// priceScore is 100 within budget and degrades linearly with the overshoot
// fraction, reaching 0 at double the budget.
func (e *Evaluator) priceScore(price int) float64 {
	if price <= e.budget {
		return 100
	}
	over := float64(price-e.budget) / float64(e.budget) * 100
	if over >= 100 {
		return 0
	}
	return 100 - over
}

// ramScore rewards meeting the minimum with a bonus per surplus GB;
// shortfalls scale down to at most half credit.
func (e *Evaluator) ramScore(ramGB int) float64 {
	if e.minRAMGB <= 0 {
		return 80
	}
	if ramGB >= e.minRAMGB {
		s := 80 + 5*float64(ramGB-e.minRAMGB)
		if s > 100 {
			return 100
		}
		return s
	}
	return float64(ramGB) / float64(e.minRAMGB) * 50
}

// weightScore is a hard zero over the ceiling, otherwise banded by how
// portable the machine is. A missing weight counts as the heaviest band,
// not as ultraportable.
func (e *Evaluator) weightScore(kg float64) float64 {
	if kg <= 0 {
		kg = defaultWeightLimit
	}
	if kg > e.maxWeightKg {
		return 0
	}
	switch {
	case kg < 1.5:
		return 100
	case kg < 2:
		return 70
	default:
		return 50
	}
}

// batteryScore mirrors ramScore with a smaller surplus bonus; shortfalls
// scale to at most 60.
func (e *Evaluator) batteryScore(hours float64) float64 {
	if e.minBatteryHours <= 0 {
		return 80
	}
	if hours >= e.minBatteryHours {
		s := 80 + 3*(hours-e.minBatteryHours)
		if s > 100 {
			return 100
		}
		return s
	}
	return hours / e.minBatteryHours * 60
}

func brandScore(brand string) float64 {
	if reliableBrands[strings.ToUpper(strings.TrimSpace(brand))] {
		return 85
	}
	return 75
}

// parseRAMGB pulls the leading number out of strings like "16GB" or
// "8 GB DDR4". Unparseable values count as zero.
func parseRAMGB(ram string) int {
	m := ramPattern.FindString(ram)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ============================================================================
// Explanation
// ============================================================================

// useCasePhrases maps use-case tags to the audience phrase in the
// explanation copy.
var useCasePhrases = map[string]string{
	profile.UseCaseStudy:    "para estudiantes",
	profile.UseCaseOffice:   "para oficina",
	profile.UseCaseGaming:   "para gaming",
	profile.UseCaseCreative: "para diseño",
	profile.UseCaseGeneral:  "para uso diario",
}

// explain builds the Spanish one-liner shown with a recommendation: the
// use-case fit, up to two highlights, and the price when it fits the
// budget.
func (e *Evaluator) explain(p catalog.Product, highlights []string) string {
	phrase, ok := useCasePhrases[e.useCase]
	if !ok {
		phrase = "para ti"
	}
	parts := []string{"Ideal " + phrase}

	n := len(highlights)
	if n > 2 {
		n = 2
	}
	parts = append(parts, highlights[:n]...)

	if p.PriceSale > 0 && p.PriceSale <= e.budget {
		parts = append(parts, "Precio de "+profile.FormatPrice(p.PriceSale)+" dentro de tu presupuesto")
	}

	return strings.Join(parts, ". ") + "."
}
